package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/findtext/internal/search"
)

func TestFormatFindText_NoResults(t *testing.T) {
	out := FormatFindText("needle", FindTextOutput{FilesScanned: 4})

	assert.Equal(t, "No occurrences of \"needle\" found (4 files scanned, 0 skipped)\n", out)
}

func TestFormatFindText_ListsOccurrences(t *testing.T) {
	// Given: two occurrences in one file
	result := FindTextOutput{
		Occurrences: []search.Occurrence{
			{File: "/src/a.txt", Line: 1, Offset: 1},
			{File: "/src/a.txt", Line: 3, Offset: 8},
		},
		FilesScanned: 1,
		FilesSkipped: 2,
	}

	// When: formatting
	out := FormatFindText("needle", result)

	// Then: a header and one CLI-style line per occurrence
	assert.Equal(t, "Found 2 occurrences of \"needle\" (1 files scanned, 2 skipped)\n"+
		"/src/a.txt: 1:1\n"+
		"/src/a.txt: 3:8\n", out)
}

func TestFormatFindText_Truncated(t *testing.T) {
	result := FindTextOutput{
		Occurrences: []search.Occurrence{{File: "/a", Line: 1, Offset: 1}},
		Truncated:   true,
	}

	out := FormatFindText("x", result)

	assert.Contains(t, out, "Found 1 occurrence of")
	assert.Contains(t, out, "Stopped at the limit of 1 occurrences")
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		limit, want int
	}{
		{0, 100},
		{-5, 100},
		{1, 1},
		{500, 500},
		{5000, 1000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clampLimit(tt.limit, 100, 1, 1000), "limit %d", tt.limit)
	}
}
