package search

import "fmt"

// Occurrence is one match of the query: the file it was found in, the
// 1-based line number, and the 1-based rune offset of the match start.
type Occurrence struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Offset int    `json:"offset"`
}

// String renders the occurrence as "<file>: <line>:<offset>".
func (o Occurrence) String() string {
	return fmt.Sprintf("%s: %d:%d", o.File, o.Line, o.Offset)
}
