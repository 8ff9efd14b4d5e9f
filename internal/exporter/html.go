package exporter

import (
	"html"
	"strings"

	"cxfeedback/internal/grid"
)

// CellStyle is applied inline to every header and data cell so the table
// keeps its look when pasted into mail clients and documents.
const CellStyle = "border: 1px solid #000; padding: 4px 8px; max-width: 240px; " +
	"overflow: hidden; text-overflow: ellipsis; text-align: center; white-space: nowrap;"

// TableStyle is applied to the enclosing table element.
const TableStyle = "border-collapse: collapse;"

// HTML renders header and rows as a table. Cell text is escaped; missing
// trailing cells render empty.
func HTML(header grid.Row, rows []grid.Row) string {
	width := len(header)

	var b strings.Builder
	b.WriteString(`<table style="` + TableStyle + `"><thead><tr>`)
	for _, h := range header {
		writeCell(&b, "th", h)
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for i := 0; i < width; i++ {
			writeCell(&b, "td", row.Cell(i))
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

func writeCell(b *strings.Builder, tag, text string) {
	b.WriteString("<" + tag + ` style="` + CellStyle + `">`)
	b.WriteString(html.EscapeString(text))
	b.WriteString("</" + tag + ">")
}
