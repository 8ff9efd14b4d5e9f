// Package grid holds the rectangular string table fetched from a tabular
// source. Row 0 of the source is the header; every following row is data,
// positionally aligned to the header.
package grid

import (
	"fmt"
	"strings"
)

// Row is an ordered sequence of raw cell values.
type Row []string

// Cell returns the value at index i, or "" when the row is shorter than i+1.
// Negative indexes also read as empty.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// Pad returns a copy of r stretched or cut to exactly width cells.
func (r Row) Pad(width int) Row {
	out := make(Row, width)
	for i := 0; i < width; i++ {
		out[i] = r.Cell(i)
	}
	return out
}

// Grid is a header row followed by data rows.
type Grid struct {
	Header Row
	Rows   []Row
}

// IsEmpty reports whether the grid has no header at all.
func (g Grid) IsEmpty() bool {
	return len(g.Header) == 0
}

// Width is the number of header columns.
func (g Grid) Width() int {
	return len(g.Header)
}

// Clone returns a deep copy so callers can hand the grid to code that must
// not observe later mutation.
func (g Grid) Clone() Grid {
	out := Grid{Header: append(Row(nil), g.Header...)}
	if g.Rows != nil {
		out.Rows = make([]Row, len(g.Rows))
		for i, r := range g.Rows {
			out.Rows[i] = append(Row(nil), r...)
		}
	}
	return out
}

// FromStrings builds a grid from a [][]string whose first row is the header.
func FromStrings(values [][]string) Grid {
	if len(values) == 0 {
		return Grid{}
	}
	g := Grid{Header: Row(values[0])}
	for _, v := range values[1:] {
		g.Rows = append(g.Rows, Row(v))
	}
	return g
}

// FromValues builds a grid from loosely typed cells, as returned by the
// Sheets values API. Nil cells become "".
func FromValues(values [][]interface{}) Grid {
	rows := make([][]string, len(values))
	for i, raw := range values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			if cell == nil {
				continue
			}
			if s, ok := cell.(string); ok {
				row[j] = s
				continue
			}
			row[j] = fmt.Sprint(cell)
		}
		rows[i] = row
	}
	return FromStrings(rows)
}

// String renders the grid as tab separated lines, handy in logs and tests.
func (g Grid) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(g.Header, "\t"))
	for _, r := range g.Rows {
		b.WriteByte('\n')
		b.WriteString(strings.Join(r, "\t"))
	}
	return b.String()
}
