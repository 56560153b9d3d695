package pdflayout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeTables(t *testing.T) {
	tests := []struct {
		name      string
		input     []Rect
		tolerance float64
		expected  []Rect
	}{
		{
			name:      "empty input",
			input:     nil,
			tolerance: 20,
			expected:  nil,
		},
		{
			name:      "single table unchanged",
			input:     []Rect{{X0: 0, Y0: 0, X1: 10, Y1: 10}},
			tolerance: 20,
			expected:  []Rect{{X0: 0, Y0: 0, X1: 10, Y1: 10}},
		},
		{
			name: "overlapping fragments merge into bounding rect",
			input: []Rect{
				{X0: 0, Y0: 0, X1: 10, Y1: 10},
				{X0: 9, Y0: 9, X1: 20, Y1: 20},
			},
			tolerance: 20,
			expected:  []Rect{{X0: 0, Y0: 0, X1: 20, Y1: 20}},
		},
		{
			name: "close fragments merge within tolerance",
			input: []Rect{
				{X0: 0, Y0: 0, X1: 10, Y1: 10},
				{X0: 20, Y0: 20, X1: 30, Y1: 30},
			},
			tolerance: 20,
			expected:  []Rect{{X0: 0, Y0: 0, X1: 30, Y1: 30}},
		},
		{
			name: "distant tables stay separate at low tolerance",
			input: []Rect{
				{X0: 0, Y0: 0, X1: 10, Y1: 10},
				{X0: 20, Y0: 20, X1: 30, Y1: 30},
			},
			tolerance: 5,
			expected: []Rect{
				{X0: 0, Y0: 0, X1: 10, Y1: 10},
				{X0: 20, Y0: 20, X1: 30, Y1: 30},
			},
		},
		{
			name: "vertically stacked fragments of one table",
			input: []Rect{
				{X0: 0, Y0: 0, X1: 100, Y1: 50},
				{X0: 0, Y0: 55, X1: 100, Y1: 110},
				{X0: 0, Y0: 115, X1: 100, Y1: 160},
			},
			tolerance: 20,
			expected:  []Rect{{X0: 0, Y0: 0, X1: 100, Y1: 160}},
		},
		{
			name: "aligned but far apart stays separate",
			input: []Rect{
				{X0: 0, Y0: 0, X1: 100, Y1: 50},
				{X0: 0, Y0: 300, X1: 100, Y1: 350},
			},
			tolerance: 20,
			expected: []Rect{
				{X0: 0, Y0: 0, X1: 100, Y1: 50},
				{X0: 0, Y0: 300, X1: 100, Y1: 350},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeTables(tt.input, tt.tolerance)
			require.Equal(t, tt.expected, got)
		})
	}
}

func TestMergeTablesIdempotent(t *testing.T) {
	input := []Rect{
		{X0: 0, Y0: 0, X1: 10, Y1: 10},
		{X0: 9, Y0: 9, X1: 20, Y1: 20},
		{X0: 200, Y0: 200, X1: 300, Y1: 250},
		{X0: 200, Y0: 255, X1: 300, Y1: 310},
	}

	once := mergeTables(input, 20)
	twice := mergeTables(once, 20)
	require.Equal(t, once, twice)
}
