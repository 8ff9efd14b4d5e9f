package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"cxfeedback/internal/grid"
)

// XLSX renders header and rows into a single-sheet workbook. Every cell of
// the populated rectangle gets a thin border on all four sides and centered
// alignment. Values are written as text so dates and ids are not reformatted.
func XLSX(header grid.Row, rows []grid.Row, opts Options) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := opts.sheetName()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet %q: %w", sheet, err)
	}

	width := len(header)
	if width == 0 {
		return writeWorkbook(f)
	}

	all := make([]grid.Row, 0, len(rows)+1)
	all = append(all, header)
	all = append(all, rows...)
	for r, row := range all {
		cells := row.Pad(width)
		start, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, start, &cells); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cell style: %w", err)
	}

	end, err := excelize.CoordinatesToCellName(width, len(all))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", end, style); err != nil {
		return nil, fmt.Errorf("failed to apply cell style: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(width)
	if err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, opts.columnWidth()); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	return writeWorkbook(f)
}

func writeWorkbook(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
