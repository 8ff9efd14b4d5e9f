package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// FeedbackHeader is the header row of the call-center feedback sheet.
var FeedbackHeader = []string{"Timestamp", "Agent", "Call Center", "Rating", "Comment"}

// FeedbackValues returns a small feedback sheet as raw cell strings: the
// header followed by rows across two centers and a few awkward dates.
func FeedbackValues() [][]string {
	return [][]string{
		FeedbackHeader,
		{"3/1/2025 09:15:00", "Mwila", "TEP", "5", "Resolved quickly"},
		{"3/2/2025 10:00:00", "Chanda", "Buwelo", "3", "Long hold"},
		{"3/5/2025 14:30:00", "Bwalya", " tep ", "4", "Polite"},
		{"not a date", "Zulu", "TEP", "1", "Garbled"},
		{"3/8/2025 08:00:00", "Phiri", "TEP"},
		{"2/20/2025 12:00:00", "Banda", "TEP", "2", "Before the window"},
		{"3/6/2025 16:45:00", "Lungu"},
	}
}

// WriteTempFile writes data to name inside a per-test directory and returns
// the full path.
func WriteTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
