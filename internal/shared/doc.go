// Package shared holds code used across packages that belongs to no single
// layer. Today that is the testutil subpackage: the feedback sheet fixture,
// temp file helpers and a slog handler that captures records for
// assertions.
//
//	func TestSomething(t *testing.T) {
//	    logger, handler := testutil.NewTestLogger(t)
//	    // ...
//	    testutil.AssertLogContains(t, handler, slog.LevelInfo, "export requested")
//	}
package shared
