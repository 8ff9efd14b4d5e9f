package feedback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDateParser(t *testing.T) {
	jan15 := NewDate(2025, time.January, 15)

	tests := []struct {
		name     string
		raw      string
		expected Date
		ok       bool
	}{
		{"us date", "1/15/2025", jan15, true},
		{"us date zero padded", "01/15/2025", jan15, true},
		{"us timestamp", "1/15/2025 14:30:00", jan15, true},
		{"us timestamp pm", "1/15/2025 2:30:00 PM", jan15, true},
		{"iso date", "2025-01-15", jan15, true},
		{"iso timestamp", "2025-01-15 23:59:59", jan15, true},
		{"rfc3339 keeps written day", "2025-01-15T23:30:00-08:00", jan15, true},
		{"js date string", "Wed Jan 15 2025 10:00:00 GMT-0500 (Eastern Standard Time)", jan15, true},
		{"long form", "January 15, 2025", jan15, true},
		{"locale string", "1/15/2025, 2:03:22 PM", jan15, true},
		{"short month with time", "Jan 15, 2025 10:00 AM", jan15, true},
		{"go time string", "2025-01-15 10:00:00 +0000 UTC", jan15, true},
		{"unpadded iso", "2025-1-15", jan15, true},
		{"unpadded iso single digit day", "2025-1-5", NewDate(2025, time.January, 5), true},
		{"extra whitespace", "  1/15/2025   14:30:00 ", jan15, true},
		{"serial number", "45672", jan15, true},
		{"serial with fraction", "45672.75", jan15, true},
		{"not a date", "not-a-date", Date{}, false},
		{"empty", "", Date{}, false},
		{"bare year is not a serial", "2025", Date{}, false},
		{"month out of range", "13/40/2025", Date{}, false},
	}

	parser := DefaultDateParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parser.ParseDate(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected.String(), got.String())
			}
		})
	}
}

func TestFreeformParser(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Date
		ok       bool
	}{
		{"month name with seconds", "May 8, 2009 5:57:51 PM", NewDate(2009, time.May, 8), true},
		{"fractional seconds", "2014-04-26 17:24:37.3186369", NewDate(2014, time.April, 26), true},
		{"offset keeps written day", "2025-01-15T23:30:00-08:00", NewDate(2025, time.January, 15), true},
		{"numbers are left alone", "45672", Date{}, false},
		{"fractional numbers are left alone", "45672.75", Date{}, false},
		{"empty", "  ", Date{}, false},
		{"words", "pending", Date{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FreeformParser{}.ParseDate(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected.String(), got.String())
			}
		})
	}
}

func TestLayoutParserOrder(t *testing.T) {
	// 03/04 is ambiguous; the first layout decides.
	us := LayoutParser{Layouts: []string{"1/2/2006", "2/1/2006"}}
	eu := LayoutParser{Layouts: []string{"2/1/2006", "1/2/2006"}}

	d, ok := us.ParseDate("03/04/2025")
	require.True(t, ok)
	assert.Equal(t, "2025-03-04", d.String())

	d, ok = eu.ParseDate("03/04/2025")
	require.True(t, ok)
	assert.Equal(t, "2025-04-03", d.String())
}

func TestParseISODate(t *testing.T) {
	d, err := ParseISODate(" 2025-02-28 ")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, time.February, 28), d)

	_, err = ParseISODate("02/28/2025")
	assert.Error(t, err)
}

func TestDateWithin(t *testing.T) {
	start := NewDate(2025, time.January, 1)
	end := NewDate(2025, time.January, 31)

	assert.True(t, start.Within(start, end))
	assert.True(t, end.Within(start, end))
	assert.True(t, NewDate(2025, time.January, 15).Within(start, end))
	assert.False(t, NewDate(2024, time.December, 31).Within(start, end))
	assert.False(t, NewDate(2025, time.February, 1).Within(start, end))
	assert.False(t, start.Within(end, start), "inverted range matches nothing")
}

func TestDateOfIgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2025, time.January, 31, 23, 59, 59, 0, time.FixedZone("X", -5*3600))
	assert.Equal(t, NewDate(2025, time.January, 31), DateOf(late))
	assert.Equal(t, "2025-01-30", DateOf(late).AddDays(-1).String())
}
