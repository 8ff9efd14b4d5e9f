package sheets

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/xuri/excelize/v2"

	"cxfeedback/internal/grid"
)

// XLSXSource reads a local workbook, such as a downloaded copy of the
// feedback sheet. The sheet is the tab part of rangeSpec; the column part is
// ignored. An empty tab selects the first sheet.
type XLSXSource struct {
	Path string
}

// FetchGrid implements Source. When Path is empty resourceID is used as the
// workbook path.
func (s XLSXSource) FetchGrid(ctx context.Context, resourceID, rangeSpec string) (grid.Grid, error) {
	if err := ctx.Err(); err != nil {
		return grid.Grid{}, fetchError("xlsx", 0, err)
	}
	path := s.Path
	if path == "" {
		path = resourceID
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return grid.Grid{}, fetchError("xlsx", 0, err)
	}
	defer f.Close()

	sheet := SheetName(rangeSpec)
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return grid.Grid{}, nil
		}
		sheet = list[0]
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return grid.Grid{}, fetchError("xlsx", 0, fmt.Errorf("sheet %q not found in %s", sheet, path))
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return grid.Grid{}, fetchError("xlsx", 0, fmt.Errorf("%w: %w", ErrDecode, err))
	}
	return grid.FromStrings(rows), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSource reads a local comma separated export. Ragged rows are accepted
// and a leading UTF-8 byte order mark is dropped.
type CSVSource struct {
	Path  string
	Comma rune
}

// FetchGrid implements Source. rangeSpec is ignored.
func (s CSVSource) FetchGrid(ctx context.Context, resourceID, _ string) (grid.Grid, error) {
	if err := ctx.Err(); err != nil {
		return grid.Grid{}, fetchError("csv", 0, err)
	}
	path := s.Path
	if path == "" {
		path = resourceID
	}

	f, err := os.Open(path)
	if err != nil {
		return grid.Grid{}, fetchError("csv", 0, err)
	}
	defer f.Close()

	rows, err := readCSV(f, s.Comma)
	if err != nil {
		return grid.Grid{}, fetchError("csv", 0, err)
	}
	return grid.FromStrings(rows), nil
}

func readCSV(r io.Reader, comma rune) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if comma != 0 {
		cr.Comma = comma
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w: %w", ErrDecode, err)
		}
		rows = append(rows, rec)
	}
}
