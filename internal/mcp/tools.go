package mcp

import "github.com/Aman-CERP/findtext/internal/search"

// FindTextInput defines the input schema for the find_text tool.
type FindTextInput struct {
	Query       string `json:"query" jsonschema:"text to find, matched case-insensitively; overlapping matches are all reported"`
	Path        string `json:"path,omitempty" jsonschema:"directory to search, defaults to the server root"`
	Limit       int    `json:"limit,omitempty" jsonschema:"maximum number of occurrences, default 100, max 1000"`
	Concurrency int    `json:"concurrency,omitempty" jsonschema:"number of files scanned at once, default from config"`
}

// FindTextOutput defines the output schema for the find_text tool.
type FindTextOutput struct {
	Occurrences  []search.Occurrence `json:"occurrences" jsonschema:"matches: absolute file path, 1-based line, 1-based character offset"`
	Truncated    bool                `json:"truncated" jsonschema:"true when the search was stopped at limit"`
	FilesScanned int64               `json:"files_scanned" jsonschema:"files read to the end"`
	FilesSkipped int64               `json:"files_skipped" jsonschema:"files skipped because they could not be decoded as text"`
}
