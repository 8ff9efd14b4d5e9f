package feedback

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"cxfeedback/internal/grid"
)

// Criteria selects rows: an inclusive date interval and a call center.
// Start after End is not an error; it simply matches nothing.
type Criteria struct {
	Start  Date
	End    Date
	Center string
}

// NormalizeCenter trims surrounding whitespace and lower-cases.
func NormalizeCenter(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SkipReason explains why a data row was left out.
type SkipReason string

const (
	SkipUnparseableDate SkipReason = "unparseable_date"
	SkipOutOfRange      SkipReason = "out_of_range"
	SkipMissingCenter   SkipReason = "missing_center"
	SkipCenterMismatch  SkipReason = "center_mismatch"
)

// Diagnostics counts rows by outcome. Each examined row lands in exactly
// one bucket: Matched or the first failing check.
type Diagnostics struct {
	Examined        int `json:"examined"`
	Matched         int `json:"matched"`
	UnparseableDate int `json:"unparseable_date"`
	OutOfRange      int `json:"out_of_range"`
	MissingCenter   int `json:"missing_center"`
	CenterMismatch  int `json:"center_mismatch"`
}

// Unreadable is the number of rows dropped because their data could not be
// read, as opposed to rows that were read and did not match.
func (d Diagnostics) Unreadable() int {
	return d.UnparseableDate + d.MissingCenter
}

func (d *Diagnostics) add(reason SkipReason) {
	switch reason {
	case SkipUnparseableDate:
		d.UnparseableDate++
	case SkipOutOfRange:
		d.OutOfRange++
	case SkipMissingCenter:
		d.MissingCenter++
	case SkipCenterMismatch:
		d.CenterMismatch++
	}
}

// Result is the filtered row set in source order.
type Result struct {
	Header      grid.Row
	Rows        []grid.Row
	Diagnostics Diagnostics
}

// Empty reports whether no row matched.
func (r Result) Empty() bool {
	return len(r.Rows) == 0
}

// Filter applies Criteria to a grid. It holds no per-call state and is safe
// for concurrent use.
type Filter struct {
	parser DateParser
	logger *slog.Logger
}

// NewFilter returns a filter using parser for date cells. A nil parser
// means DefaultDateParser; a nil logger discards row-level debug output.
func NewFilter(parser DateParser, logger *slog.Logger) *Filter {
	if parser == nil {
		parser = DefaultDateParser()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Filter{
		parser: parser,
		logger: logger.With(slog.String("component", "feedback_filter")),
	}
}

// Apply returns the rows of g matching c. The grid is never modified and
// the returned rows are copies.
func (f *Filter) Apply(ctx context.Context, g grid.Grid, cols Columns, c Criteria) Result {
	want := NormalizeCenter(c.Center)
	res := Result{Header: append(grid.Row(nil), g.Header...)}

	for i, row := range g.Rows {
		res.Diagnostics.Examined++
		reason, ok := f.match(row, cols, c, want)
		if !ok {
			res.Diagnostics.add(reason)
			f.logger.DebugContext(ctx, "row skipped",
				slog.Int("row", i+2),
				slog.String("reason", string(reason)))
			continue
		}
		res.Diagnostics.Matched++
		res.Rows = append(res.Rows, append(grid.Row(nil), row...))
	}
	return res
}

func (f *Filter) match(row grid.Row, cols Columns, c Criteria, center string) (SkipReason, bool) {
	d, ok := f.parser.ParseDate(row.Cell(cols.Date))
	if !ok {
		return SkipUnparseableDate, false
	}
	if !d.Within(c.Start, c.End) {
		return SkipOutOfRange, false
	}
	if cols.Center < 0 || cols.Center >= len(row) {
		return SkipMissingCenter, false
	}
	if NormalizeCenter(row[cols.Center]) != center {
		return SkipCenterMismatch, false
	}
	return "", true
}

// Window keeps rows whose date lies in [start, end] regardless of center.
// It backs the read-only recent feedback view.
func (f *Filter) Window(ctx context.Context, g grid.Grid, dateCol int, start, end Date) Result {
	res := Result{Header: append(grid.Row(nil), g.Header...)}
	for i, row := range g.Rows {
		res.Diagnostics.Examined++
		d, ok := f.parser.ParseDate(row.Cell(dateCol))
		if !ok {
			res.Diagnostics.add(SkipUnparseableDate)
			f.logger.DebugContext(ctx, "row skipped",
				slog.Int("row", i+2),
				slog.String("reason", string(SkipUnparseableDate)))
			continue
		}
		if !d.Within(start, end) {
			res.Diagnostics.add(SkipOutOfRange)
			continue
		}
		res.Diagnostics.Matched++
		res.Rows = append(res.Rows, append(grid.Row(nil), row...))
	}
	return res
}

// Recent keeps rows dated within the last days days, today included.
func (f *Filter) Recent(ctx context.Context, g grid.Grid, today Date, days int) (Result, error) {
	col := ResolveColumn(g.Header, DateTarget)
	if col == NotFound {
		return Result{}, &ColumnError{Missing: []string{DateTarget.Name}, Header: g.Header}
	}
	return f.Window(ctx, g, col, today.AddDays(-days), today), nil
}
