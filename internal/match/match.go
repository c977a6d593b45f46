// Package match finds case-insensitive, possibly overlapping occurrences of a
// query within a single line of text.
//
// Folding is locale independent: every rune is mapped with unicode.ToLower,
// so the folded line has exactly as many runes as the original and offsets
// computed on the folded form are valid for the original line.
package match

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Fold returns s with every rune mapped to its simple lowercase form.
func Fold(s string) string {
	return strings.Map(unicode.ToLower, s)
}

// Offsets returns the 1-based rune offsets at which foldedQuery occurs in the
// folded form of line, in strictly increasing order. Each search resumes one
// rune after the start of the previous match, so "aa" in "aaa" yields 1 and 2.
//
// The sequence is lazy and may be ranged over any number of times. An empty
// query yields nothing.
func Offsets(line, foldedQuery string) iter.Seq[int] {
	return func(yield func(int) bool) {
		if foldedQuery == "" {
			return
		}
		folded := Fold(line)

		from := 0  // byte position where the next search starts
		runes := 0 // rune count of folded[:from]
		for from <= len(folded) {
			i := strings.Index(folded[from:], foldedQuery)
			if i < 0 {
				return
			}
			start := from + i
			runes += utf8.RuneCountInString(folded[from:start])
			if !yield(runes + 1) {
				return
			}

			_, size := utf8.DecodeRuneInString(folded[start:])
			from = start + size
			runes++
		}
	}
}

// Count returns the number of overlapping occurrences of foldedQuery in line.
func Count(line, foldedQuery string) int {
	n := 0
	for range Offsets(line, foldedQuery) {
		n++
	}
	return n
}
