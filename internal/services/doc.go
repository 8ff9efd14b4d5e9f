// Package services implements the business logic layer of the feedback
// exporter. Handlers and the CLI call into services; services call the
// source, filter, exporter, sinks and notifiers.
//
// # Submission Pipeline
//
// ExportService.Submit runs one submission to a terminal state:
//
//	validate → guard → fetch → resolve columns → filter → render → deliver → notify
//
// Validation runs before the in-flight guard so a bad form never makes a
// network call. At most MaxInFlight submissions run at once; the rest are
// rejected with ErrSubmissionInFlight rather than queued.
//
// # Error Handling
//
// Submit always returns a Report for the states the operator sees
// (validation, schema, empty, success, failure). Validation, schema and
// failure also return an *errors.AppError so HTTP handlers can map them to
// a problem response:
//
//	- ErrTypeValidation for missing or malformed input
//	- ErrTypeSchema when the date or call center column is missing
//	- ErrTypeNetwork when the source could not be read
//	- ErrTypeConflict when another submission is in flight
//
// # Testing
//
// Collaborators are small interfaces and are mocked with testify:
//
//	src := new(MockSource)
//	src.On("FetchGrid", mock.Anything, "sheet", "2026!A:L").Return(g, nil)
//	svc := NewExportService(ExportDeps{Source: src, ...})
package services
