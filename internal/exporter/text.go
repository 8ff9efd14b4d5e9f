package exporter

import (
	"strings"

	"cxfeedback/internal/grid"
)

// PlainText renders header and rows as tab separated lines, each ending in
// a newline.
func PlainText(header grid.Row, rows []grid.Row) string {
	var b strings.Builder
	writeLine(&b, header, len(header), "\t", func(s string) string { return s })
	for _, row := range rows {
		writeLine(&b, row, len(header), "\t", func(s string) string { return s })
	}
	return b.String()
}

// writeLine writes width cells of row, joined by sep and transformed by
// quote, followed by a newline.
func writeLine(b *strings.Builder, row grid.Row, width int, sep string, quote func(string) string) {
	for i := 0; i < width; i++ {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(quote(row.Cell(i)))
	}
	b.WriteByte('\n')
}
