package exporter

import (
	"strings"

	"cxfeedback/internal/grid"
)

// UTF8BOM makes Excel open a CSV as UTF-8 instead of the system code page.
const UTF8BOM = "\uFEFF"

// CSV renders header and rows as comma separated values. Every field,
// header included, is wrapped in double quotes with embedded quotes
// doubled. Rows end in "\n".
func CSV(header grid.Row, rows []grid.Row) string {
	var b strings.Builder
	writeLine(&b, header, len(header), ",", quoteField)
	for _, row := range rows {
		writeLine(&b, row, len(header), ",", quoteField)
	}
	return b.String()
}

func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
