package feedback

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cxfeedback/internal/grid"
)

func TestResolveColumn(t *testing.T) {
	tests := []struct {
		name     string
		header   grid.Row
		target   Target
		expected int
	}{
		{
			name:     "exact label",
			header:   grid.Row{"Date", "Call Center", "Comment"},
			target:   DateTarget,
			expected: 0,
		},
		{
			name:     "substring and case insensitive",
			header:   grid.Row{"Agent", "Feedback DATE (local)", "Notes"},
			target:   DateTarget,
			expected: 1,
		},
		{
			name:     "timestamp counts as date",
			header:   grid.Row{"Timestamp", "Call Center", "Comment"},
			target:   DateTarget,
			expected: 0,
		},
		{
			name:     "first match wins",
			header:   grid.Row{"Comment", "Call Center", "Center Region"},
			target:   CenterTarget,
			expected: 1,
		},
		{
			name:     "british spelling",
			header:   grid.Row{"When", "Contact Centre"},
			target:   CenterTarget,
			expected: 1,
		},
		{
			name:     "surrounding whitespace ignored",
			header:   grid.Row{"  ", "  CALL CENTER  "},
			target:   CenterTarget,
			expected: 1,
		},
		{
			name:     "not found",
			header:   grid.Row{"Agent", "Comment"},
			target:   DateTarget,
			expected: NotFound,
		},
		{
			name:     "empty header",
			header:   nil,
			target:   CenterTarget,
			expected: NotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveColumn(tt.header, tt.target))
		})
	}
}

func TestResolveColumns(t *testing.T) {
	t.Run("both present", func(t *testing.T) {
		cols, err := ResolveColumns(grid.Row{"Timestamp", "Call Center", "Comment"})
		require.NoError(t, err)
		assert.Equal(t, Columns{Date: 0, Center: 1}, cols)
	})

	t.Run("center missing", func(t *testing.T) {
		_, err := ResolveColumns(grid.Row{"Date", "Comment"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrColumnNotFound))

		var colErr *ColumnError
		require.True(t, errors.As(err, &colErr))
		assert.Equal(t, []string{CenterTarget.Name}, colErr.Missing)
		assert.Contains(t, err.Error(), "call center")
	})

	t.Run("both missing", func(t *testing.T) {
		_, err := ResolveColumns(grid.Row{"Agent"})
		var colErr *ColumnError
		require.True(t, errors.As(err, &colErr))
		assert.Equal(t, []string{DateTarget.Name, CenterTarget.Name}, colErr.Missing)
	})
}
