package filescan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fterrors "github.com/Aman-CERP/findtext/internal/errors"
	"github.com/Aman-CERP/findtext/internal/match"
)

type hit struct{ Line, Offset int }

func writeFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func scan(t *testing.T, s *Scanner, path, query string) ([]hit, Result, error) {
	t.Helper()
	var hits []hit
	res, err := s.Scan(context.Background(), path, match.Fold(query), func(line, offset int) error {
		hits = append(hits, hit{line, offset})
		return nil
	})
	return hits, res, err
}

func newScanner(t *testing.T, opts Options) *Scanner {
	t.Helper()
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func TestScan_FindsOccurrencesInOrder(t *testing.T) {
	path := writeFile(t, []byte("no hits here\nmatch on this line\nanother match match\n"))

	hits, res, err := scan(t, newScanner(t, Options{}), path, "match")

	require.NoError(t, err)
	assert.Equal(t, []hit{{2, 1}, {3, 9}, {3, 15}}, hits)
	assert.Equal(t, 3, res.Lines)
	assert.Equal(t, 3, res.Occurrences)
	assert.False(t, res.Skipped)
}

func TestScan_LineTerminators(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []hit
		lines   int
	}{
		{"lf", "x\nx\n", []hit{{1, 1}, {2, 1}}, 2},
		{"crlf", "x\r\nx\r\n", []hit{{1, 1}, {2, 1}}, 2},
		{"lone cr", "x\rx", []hit{{1, 1}, {2, 1}}, 2},
		{"trailing cr", "ax\r", []hit{{1, 2}}, 1},
		{"blank lines", "\n\nx", []hit{{3, 1}}, 3},
		{"no trailing newline", "abc x", []hit{{1, 5}}, 1},
		{"empty file", "", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, []byte(tt.content))

			hits, res, err := scan(t, newScanner(t, Options{}), path, "X")

			require.NoError(t, err)
			assert.Equal(t, tt.want, hits)
			assert.Equal(t, tt.lines, res.Lines)
		})
	}
}

func TestScan_InvalidUTF8IsSkippedWithoutPartialResults(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"invalid sequence after matches", []byte("word\nword word\n\xC3\x28 word\n")},
		{"truncated rune at end", []byte("word\xC3")},
		{"lone continuation byte", []byte("\x80word")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.content)

			hits, res, err := scan(t, newScanner(t, Options{}), path, "word")

			require.NoError(t, err)
			assert.Empty(t, hits)
			assert.True(t, res.Skipped)
			assert.ErrorIs(t, res.SkipReason, fterrors.New(fterrors.ErrCodeFileDecode, "", nil))
		})
	}
}

func TestScan_LegacyEncoding(t *testing.T) {
	path := writeFile(t, []byte("caf\xe9 WORD\n"))

	strictHits, strictRes, err := scan(t, newScanner(t, Options{}), path, "word")
	require.NoError(t, err)
	assert.Empty(t, strictHits)
	assert.True(t, strictRes.Skipped)

	hits, res, err := scan(t, newScanner(t, Options{Encoding: "windows-1252"}), path, "CAFÉ")
	require.NoError(t, err)
	assert.Equal(t, []hit{{1, 1}}, hits)
	assert.False(t, res.Skipped)
}

func TestScan_UTF16(t *testing.T) {
	var content []byte
	for _, r := range "one\ntwo word\n" {
		content = append(content, byte(r), 0)
	}
	path := writeFile(t, content)

	hits, _, err := scan(t, newScanner(t, Options{Encoding: "utf-16le"}), path, "word")

	require.NoError(t, err)
	assert.Equal(t, []hit{{2, 5}}, hits)
}

func TestScan_LineTooLongIsSkipped(t *testing.T) {
	path := writeFile(t, []byte("word "+strings.Repeat("x", 200)+"\n"))

	hits, res, err := scan(t, newScanner(t, Options{MaxLineBytes: 64}), path, "word")

	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.True(t, res.Skipped)
	require.Error(t, res.SkipReason)
	assert.Contains(t, res.SkipReason.Error(), "maximum length")
}

func TestScan_LongLineAfterMatchEmitsNothing(t *testing.T) {
	// Given: a match on line 1 and a line past the limit further down,
	// larger than the initial line buffer
	content := "word here\n" + strings.Repeat("x", 100*1024) + "\nword again\n"
	path := writeFile(t, []byte(content))

	// When: scanning with a limit between the two line sizes
	hits, res, err := scan(t, newScanner(t, Options{MaxLineBytes: 70 * 1024}), path, "word")

	// Then: the file is skipped before line 1 is reported
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.True(t, res.Skipped)
	assert.Equal(t, 0, res.Occurrences)
}

func TestScan_LineAtLimitIsScanned(t *testing.T) {
	tests := []struct {
		name       string
		terminator string
	}{
		{"lf", "\n"},
		{"crlf", "\r\n"},
		{"cr", "\r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := "word" + strings.Repeat("x", 60)
			path := writeFile(t, []byte(line+tt.terminator+line))

			hits, res, err := scan(t, newScanner(t, Options{MaxLineBytes: len(line)}), path, "word")

			require.NoError(t, err)
			assert.False(t, res.Skipped)
			assert.Equal(t, []hit{{1, 1}, {2, 1}}, hits)
		})
	}
}

func TestScan_LegacyEncodingLineTooLongIsSkipped(t *testing.T) {
	path := writeFile(t, []byte("word\n"+strings.Repeat("\xe9", 200)+"\n"))

	hits, res, err := scan(t, newScanner(t, Options{Encoding: "windows-1252", MaxLineBytes: 64}), path, "word")

	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.True(t, res.Skipped)
}

func TestScan_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.txt")

	_, _, err := scan(t, newScanner(t, Options{}), path, "word")

	require.Error(t, err)
	assert.Equal(t, fterrors.ErrCodeFileNotFound, fterrors.GetCode(err))
}

func TestScan_PermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	path := writeFile(t, []byte("word"))
	require.NoError(t, os.Chmod(path, 0o000))

	_, _, err := scan(t, newScanner(t, Options{}), path, "word")

	require.Error(t, err)
	assert.Equal(t, fterrors.ErrCodeFilePermission, fterrors.GetCode(err))
}

func TestScan_CancelledBeforeStart(t *testing.T) {
	path := writeFile(t, []byte("word"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := newScanner(t, Options{}).Scan(ctx, path, "word", func(int, int) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestScan_CancelledMidLine(t *testing.T) {
	path := writeFile(t, []byte(strings.Repeat("aaaaaaaaaa", 1000)+"\n"+strings.Repeat("a\n", 1000)))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emitted := 0
	res, err := newScanner(t, Options{}).Scan(ctx, path, "a", func(int, int) error {
		emitted++
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, emitted)
	assert.Equal(t, 1, res.Lines)
}

func TestScan_EmitErrorStopsScan(t *testing.T) {
	path := writeFile(t, []byte("a a a\n"))
	stop := errors.New("stop")

	res, err := newScanner(t, Options{}).Scan(context.Background(), path, "a", func(int, int) error {
		return stop
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 0, res.Occurrences)
}

func TestNew_UnknownEncoding(t *testing.T) {
	_, err := New(Options{Encoding: "klingon"})

	require.Error(t, err)
	assert.Equal(t, fterrors.ErrCodeInvalidEncoding, fterrors.GetCode(err))
}

func TestEncodingNames(t *testing.T) {
	assert.NoError(t, ValidateEncoding(""))
	assert.NoError(t, ValidateEncoding("UTF8"))
	assert.NoError(t, ValidateEncoding("latin1"))
	assert.Error(t, ValidateEncoding("nope"))

	assert.Equal(t, "utf-8", CanonicalEncoding(""))
	assert.Equal(t, "windows-1252", CanonicalEncoding("latin1"))
	assert.Equal(t, "nope", CanonicalEncoding("nope"))
}

func TestScanLines_SplitsAcrossBufferBoundary(t *testing.T) {
	adv, tok, err := scanLines([]byte("abc\r"), false)
	require.NoError(t, err)
	assert.Equal(t, 0, adv)
	assert.Nil(t, tok)

	adv, tok, err = scanLines([]byte("abc\r\ndef"), false)
	require.NoError(t, err)
	assert.Equal(t, 5, adv)
	assert.Equal(t, "abc", string(tok))
}
