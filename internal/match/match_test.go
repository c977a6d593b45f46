package match

import (
	"slices"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestOffsets(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		query string
		want  []int
	}{
		{"overlapping", "aaa", "aa", []int{1, 2}},
		{"single", "match on this line", "match", []int{1}},
		{"twice", "another match match", "match", []int{9, 15}},
		{"case insensitive", "MaTcH here, match there", "match", []int{1, 13}},
		{"middle of line", "single word here", "word", []int{8}},
		{"no match", "no hits here", "match", nil},
		{"query longer than line", "ab", "abc", nil},
		{"whole line", "abc", "abc", []int{1}},
		{"runes not bytes", "ééé word", "word", []int{5}},
		{"upper non-ascii", "ÄPFEL äpfel", "äpfel", []int{1, 7}},
		{"greek sigma", "ΣΑΣ σας", "σ", []int{1, 3, 5}},
		{"empty line", "", "a", nil},
		{"empty query", "abc", "", nil},
		{"overlapping periodic", "abababa", "aba", []int{1, 3, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(Offsets(tt.line, Fold(tt.query)))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOffsets_Restartable(t *testing.T) {
	seq := Offsets("aaaa", "aa")

	first := slices.Collect(seq)
	second := slices.Collect(seq)

	assert.Equal(t, []int{1, 2, 3}, first)
	assert.Equal(t, first, second)
}

func TestOffsets_StopsEarly(t *testing.T) {
	var got []int
	for off := range Offsets("xxxxxxxx", "x") {
		got = append(got, off)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []int{1, 2}, got)
}

func TestFold_PreservesRuneCount(t *testing.T) {
	for _, s := range []string{"HELLO", "İstanbul", "ẞtraße", "ΣΑΣ", "ǅ", "\xff\xfe"} {
		assert.Equal(t, utf8.RuneCountInString(s), utf8.RuneCountInString(Fold(s)), s)
	}
}

func TestCount(t *testing.T) {
	assert.Equal(t, 3, Count("aaaa", "aa"))
	assert.Equal(t, 0, Count("bbb", "a"))
}

// bruteForce checks every rune position of the folded line.
func bruteForce(line, foldedQuery string) []int {
	l := []rune(Fold(line))
	q := []rune(foldedQuery)
	var out []int
	for i := 0; i+len(q) <= len(l); i++ {
		if slices.Equal(l[i:i+len(q)], q) {
			out = append(out, i+1)
		}
	}
	return out
}

func TestOffsets_Properties(t *testing.T) {
	alphabet := []rune("aAbBäÄσΣς ")

	rapid.Check(t, func(rt *rapid.T) {
		line := string(rapid.SliceOfN(rapid.SampledFrom(alphabet), 0, 40).Draw(rt, "line"))
		query := string(rapid.SliceOfN(rapid.SampledFrom(alphabet), 1, 4).Draw(rt, "query"))
		folded := Fold(query)

		got := slices.Collect(Offsets(line, folded))

		// Same positions as a brute-force rune comparison.
		if want := bruteForce(line, folded); !slices.Equal(got, want) {
			rt.Fatalf("Offsets(%q, %q) = %v, want %v", line, folded, got, want)
		}

		lineRunes := []rune(Fold(line))
		qLen := utf8.RuneCountInString(folded)
		for i, off := range got {
			if off < 1 {
				rt.Fatalf("offset %d < 1", off)
			}
			if i > 0 && off <= got[i-1] {
				rt.Fatalf("offsets not strictly increasing: %v", got)
			}
			if string(lineRunes[off-1:off-1+qLen]) != folded {
				rt.Fatalf("offset %d does not start a match", off)
			}
		}
	})
}
