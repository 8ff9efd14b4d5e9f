package feedback

import (
	"errors"
	"fmt"
	"strings"

	"cxfeedback/internal/grid"
)

// NotFound is returned by ResolveColumn when no header cell matches.
const NotFound = -1

// ErrColumnNotFound is wrapped by ColumnError.
var ErrColumnNotFound = errors.New("required column not found")

// Target names a semantic column and the keywords that identify it.
type Target struct {
	Name     string
	Keywords []string
}

var (
	// DateTarget matches "Date", "Feedback Date", "Timestamp" and the like.
	DateTarget = Target{Name: "date", Keywords: []string{"date", "timestamp"}}
	// CenterTarget matches "Call Center", "Centre" and the like.
	CenterTarget = Target{Name: "call center", Keywords: []string{"center", "centre"}}
)

// ResolveColumn scans header left to right and returns the index of the
// first cell whose lower-cased text contains any of the target keywords.
func ResolveColumn(header grid.Row, target Target) int {
	for i, cell := range header {
		label := strings.ToLower(strings.TrimSpace(cell))
		if label == "" {
			continue
		}
		for _, kw := range target.Keywords {
			if strings.Contains(label, strings.ToLower(kw)) {
				return i
			}
		}
	}
	return NotFound
}

// Columns holds the resolved positions used by the filter.
type Columns struct {
	Date   int
	Center int
}

// ColumnError lists every target that could not be located.
type ColumnError struct {
	Missing []string
	Header  grid.Row
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%v: %s (header: %q)", ErrColumnNotFound, strings.Join(e.Missing, ", "), []string(e.Header))
}

func (e *ColumnError) Unwrap() error {
	return ErrColumnNotFound
}

// ResolveColumns locates both the date and the call-center column.
func ResolveColumns(header grid.Row) (Columns, error) {
	cols := Columns{
		Date:   ResolveColumn(header, DateTarget),
		Center: ResolveColumn(header, CenterTarget),
	}

	var missing []string
	if cols.Date == NotFound {
		missing = append(missing, DateTarget.Name)
	}
	if cols.Center == NotFound {
		missing = append(missing, CenterTarget.Name)
	}
	if len(missing) > 0 {
		return cols, &ColumnError{Missing: missing, Header: header}
	}
	return cols, nil
}
