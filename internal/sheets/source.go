// Package sheets fetches the feedback grid from its tabular source: the
// Google Sheets values API, its plain REST form, or a local workbook or CSV
// export of the same sheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cxfeedback/internal/grid"
)

var (
	// ErrFetch marks every failure to obtain or decode a grid.
	ErrFetch = errors.New("fetch feedback grid")

	// ErrDecode marks a source that answered with data that cannot be read
	// as a grid. It always comes wrapped with ErrFetch.
	ErrDecode = errors.New("malformed sheet data")
)

// Source yields the rectangular grid behind resourceID and rangeSpec. Row 0
// of the result is the header.
type Source interface {
	FetchGrid(ctx context.Context, resourceID, rangeSpec string) (grid.Grid, error)
}

// FetchError describes a failed fetch. It matches ErrFetch and its cause
// under errors.Is.
type FetchError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s: status %d: %v", ErrFetch, e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrFetch, e.Source, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrFetch, e.Err}
}

func fetchError(source string, status int, err error) error {
	return &FetchError{Source: source, StatusCode: status, Err: err}
}

// SheetName returns the tab part of an A1 range such as "2026!A:L", without
// surrounding quotes. A range with no "!" is taken to be a sheet name.
func SheetName(rangeSpec string) string {
	name := rangeSpec
	if i := strings.LastIndex(rangeSpec, "!"); i >= 0 {
		name = rangeSpec[:i]
	}
	name = strings.TrimSpace(name)
	if len(name) >= 2 && name[0] == '\'' && name[len(name)-1] == '\'' {
		name = strings.ReplaceAll(name[1:len(name)-1], "''", "'")
	}
	return name
}
