package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRow_Cell(t *testing.T) {
	row := Row{"a", "b"}

	assert.Equal(t, "a", row.Cell(0))
	assert.Equal(t, "b", row.Cell(1))
	assert.Equal(t, "", row.Cell(2), "missing trailing cell reads as empty")
	assert.Equal(t, "", row.Cell(-1))
	assert.Equal(t, "", Row(nil).Cell(0))
}

func TestRow_Pad(t *testing.T) {
	assert.Equal(t, Row{"a", "", ""}, Row{"a"}.Pad(3))
	assert.Equal(t, Row{"a"}, Row{"a", "b"}.Pad(1))
	assert.Equal(t, Row{}, Row{"a"}.Pad(0))
}

func TestFromValues(t *testing.T) {
	g := FromValues([][]interface{}{
		{"Timestamp", "Call Center", "Comment"},
		{"1/2/2025", "TEP", nil},
		{45658.0, true},
	})

	require.Equal(t, Row{"Timestamp", "Call Center", "Comment"}, g.Header)
	require.Len(t, g.Rows, 2)
	assert.Equal(t, Row{"1/2/2025", "TEP", ""}, g.Rows[0])
	assert.Equal(t, Row{"45658", "true"}, g.Rows[1])
}

func TestFromStrings_Empty(t *testing.T) {
	g := FromStrings(nil)
	assert.True(t, g.IsEmpty())
	assert.Equal(t, 0, g.Width())
	assert.Empty(t, g.Rows)
}

func TestGrid_Clone(t *testing.T) {
	g := FromStrings([][]string{{"h"}, {"x"}})
	c := g.Clone()
	c.Header[0] = "changed"
	c.Rows[0][0] = "changed"

	assert.Equal(t, "h", g.Header[0])
	assert.Equal(t, "x", g.Rows[0][0])
}

func TestGrid_String(t *testing.T) {
	g := FromStrings([][]string{{"a", "b"}, {"1", "2"}})
	assert.Equal(t, "a\tb\n1\t2", g.String())
}
