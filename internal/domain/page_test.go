package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestParseSortOrder tests sort order resolution with fallback.
func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		fallback SortOrder
		expected SortOrder
	}{
		{name: "asc", raw: "asc", fallback: SortDesc, expected: SortAsc},
		{name: "desc", raw: "desc", fallback: SortAsc, expected: SortDesc},
		{name: "mixed case", raw: "DESC", fallback: SortAsc, expected: SortDesc},
		{name: "empty falls back", raw: "", fallback: SortDesc, expected: SortDesc},
		{name: "garbage falls back", raw: "newest", fallback: SortAsc, expected: SortAsc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSortOrder(tt.raw, tt.fallback))
		})
	}
}

// TestPageParams_Normalize tests default and bound application.
func TestPageParams_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		input    PageParams
		expected PageParams
	}{
		{
			name:     "zero values take defaults",
			input:    PageParams{},
			expected: PageParams{Page: 1, Limit: 20, Sort: SortDesc},
		},
		{
			name:     "negative page becomes 1",
			input:    PageParams{Page: -3, Limit: 10, Sort: SortAsc},
			expected: PageParams{Page: 1, Limit: 10, Sort: SortAsc},
		},
		{
			name:     "limit above max is capped",
			input:    PageParams{Page: 2, Limit: 5000, Sort: SortDesc},
			expected: PageParams{Page: 2, Limit: 100, Sort: SortDesc},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.input
			p.Normalize(20, 100, SortDesc)
			assert.Equal(t, tt.expected, p)
		})
	}
}

// TestTotalPages tests the ceiling division.
func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(1, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

// TestClampPage tests clamping to [1, max(totalPages, 1)].
func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 5))
	assert.Equal(t, 3, ClampPage(3, 5))
	assert.Equal(t, 5, ClampPage(9, 5))
	// No pages at all still echoes page 1.
	assert.Equal(t, 1, ClampPage(7, 0))
}

// TestPageSlice tests page window bounds.
func TestPageSlice(t *testing.T) {
	start, end := PageSlice(25, 1, 10)
	assert.Equal(t, 0, start)
	assert.Equal(t, 10, end)

	start, end = PageSlice(25, 3, 10)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)

	// Past the end yields an empty window.
	start, end = PageSlice(25, 9, 10)
	assert.Equal(t, 25, start)
	assert.Equal(t, 25, end)
}
