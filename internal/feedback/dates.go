package feedback

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/xuri/excelize/v2"
)

// ISODateLayout is the wire format for calendar dates: form fields, query
// parameters and file names.
const ISODateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day or zone.
type Date struct {
	t time.Time
}

// NewDate returns the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf keeps the calendar day of t as written in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current local calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseISODate parses YYYY-MM-DD.
func ParseISODate(s string) (Date, error) {
	t, err := time.Parse(ISODateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) After(o Date) bool { return d.t.After(o.t) }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// AddDays moves the date by n calendar days; n may be negative.
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string { return d.t.Format(ISODateLayout) }

// MarshalText renders the date as YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Within reports start <= d <= end.
func (d Date) Within(start, end Date) bool {
	return !d.Before(start) && !d.After(end)
}

// DateParser turns a raw cell into a calendar date. ok is false when the
// cell cannot be read as a date.
type DateParser interface {
	ParseDate(raw string) (d Date, ok bool)
}

// DefaultLayouts are tried in order by LayoutParser. US month-first forms
// come first because that is how the feedback form stamps its rows.
var DefaultLayouts = []string{
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006, 3:04:05 PM",
	"1/2/2006, 3:04 PM",
	"1/2/2006",
	"2006-01-02",
	"2006-1-2",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 -0700 MST",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006/01/02",
	"2006/1/2 15:04:05",
	time.RFC1123,
	time.RFC1123Z,
	"Mon Jan 2 2006 15:04:05 GMT-0700",
	"Mon Jan 2 2006",
	"January 2, 2006",
	"Jan 2, 2006 3:04:05 PM",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// LayoutParser tries each layout in order; the first that parses wins.
type LayoutParser struct {
	Layouts []string
}

// ParseDate implements DateParser.
func (p LayoutParser) ParseDate(raw string) (Date, bool) {
	s := normalizeDateText(raw)
	if s == "" {
		return Date{}, false
	}
	for _, layout := range p.Layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), true
		}
	}
	return Date{}, false
}

// normalizeDateText trims the cell and drops the "(Zone Name)" suffix that
// JavaScript's Date.toString appends.
func normalizeDateText(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, " ("); i > 0 && strings.HasSuffix(s, ")") {
		s = s[:i]
	}
	return strings.Join(strings.Fields(s), " ")
}

// FreeformParser reads the textual forms that fall outside a fixed layout
// list, such as a browser's locale strings or a log timestamp. Slashed dates
// resolve month first. Numbers are left to SerialDateParser.
type FreeformParser struct {
	// Loc is the zone for stamps that carry none; nil means UTC. The day as
	// written is kept either way.
	Loc *time.Location
}

// ParseDate implements DateParser.
func (p FreeformParser) ParseDate(raw string) (Date, bool) {
	s := normalizeDateText(raw)
	if s == "" {
		return Date{}, false
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return Date{}, false
	}
	loc := p.Loc
	if loc == nil {
		loc = time.UTC
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return Date{}, false
	}
	return DateOf(t), true
}

// SerialDateParser reads spreadsheet serial day numbers such as "45658".
// Values outside [Min, Max] are rejected so that stray numbers like a year
// or a score are not mistaken for dates.
type SerialDateParser struct {
	Min, Max float64
}

// ParseDate implements DateParser.
func (p SerialDateParser) ParseDate(raw string) (Date, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < p.Min || v > p.Max {
		return Date{}, false
	}
	t, err := excelize.ExcelDateToTime(v, false)
	if err != nil {
		return Date{}, false
	}
	return DateOf(t), true
}

// ChainParser asks each parser in turn.
type ChainParser []DateParser

// ParseDate implements DateParser.
func (c ChainParser) ParseDate(raw string) (Date, bool) {
	for _, p := range c {
		if d, ok := p.ParseDate(raw); ok {
			return d, true
		}
	}
	return Date{}, false
}

// DefaultDateParser accepts the textual layouts in DefaultLayouts, then any
// other form FreeformParser recognises, then serial numbers between 1954 and
// 2119.
func DefaultDateParser() DateParser {
	return ChainParser{
		LayoutParser{Layouts: DefaultLayouts},
		FreeformParser{},
		SerialDateParser{Min: 20000, Max: 80000},
	}
}
