package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fterrors "github.com/Aman-CERP/findtext/internal/errors"
	"github.com/Aman-CERP/findtext/internal/filescan"
	"github.com/Aman-CERP/findtext/internal/match"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	}
}

type found struct {
	File         string
	Line, Offset int
}

// relSet collects a finished session into a set keyed by path relative to root.
func relSet(t *testing.T, root string, occ []Occurrence) map[found]int {
	t.Helper()
	set := make(map[found]int)
	for _, o := range occ {
		rel, err := filepath.Rel(root, o.File)
		require.NoError(t, err)
		set[found{filepath.ToSlash(rel), o.Line, o.Offset}]++
	}
	return set
}

func TestSearch_RecursiveScenario(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"top.txt":           "no hits here\nmatch on this line\nanother match match\n",
		"nested/nested.txt": "match inside nested\n",
	})

	occ, stats, truncated, err := Collect(context.Background(), "match", root, Options{}, 0)

	require.NoError(t, err)
	assert.False(t, truncated)
	assert.Equal(t, map[found]int{
		{"top.txt", 2, 1}:           1,
		{"top.txt", 3, 9}:           1,
		{"top.txt", 3, 15}:          1,
		{"nested/nested.txt", 1, 1}: 1,
	}, relSet(t, root, occ))
	assert.Equal(t, int64(2), stats.FilesScanned)
	assert.Equal(t, int64(4), stats.Occurrences)
}

func TestSearch_UndecodableFileIsSkipped(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"good.txt":   "binary safe line\nsingle word here",
		"broken.bin": "word \xC3\x28 word",
	})

	var skipped atomic.Int32
	occ, stats, _, err := Collect(context.Background(), "word", root, Options{
		OnSkip: func(res filescan.Result) {
			skipped.Add(1)
			assert.Equal(t, filepath.Join(root, "broken.bin"), res.Path)
		},
	}, 0)

	require.NoError(t, err)
	assert.Equal(t, map[found]int{{"good.txt", 2, 8}: 1}, relSet(t, root, occ))
	assert.Equal(t, int32(1), skipped.Load())
	assert.Equal(t, int64(1), stats.FilesSkipped)
	assert.Equal(t, int64(1), stats.FilesScanned)
}

func TestSearch_OverlongLineSkipsWholeFile(t *testing.T) {
	// Given: a file whose match precedes a line past MaxLineBytes
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"long.txt": "word here\n" + strings.Repeat("x", 100*1024) + "\nword again\n",
	})

	// When: searching with a limit below the long line
	occ, stats, _, err := Collect(context.Background(), "word", root, Options{MaxLineBytes: 70 * 1024}, 0)

	// Then: the file contributes nothing and counts as skipped
	require.NoError(t, err)
	assert.Empty(t, occ)
	assert.Equal(t, int64(0), stats.Occurrences)
	assert.Equal(t, int64(1), stats.FilesSkipped)
	assert.Equal(t, int64(0), stats.FilesScanned)
}

func TestSearch_BlankQueryReturnsCopy(t *testing.T) {
	_, err := Search(context.Background(), " ", t.TempDir(), Options{})

	fe, ok := fterrors.As(err)
	require.True(t, ok)
	fe.WithDetail("query", " ")

	assert.Nil(t, ErrBlankQuery.Details)
	assert.Equal(t, ErrBlankQuery.Message, fe.Message)
	assert.NotEmpty(t, fe.Suggestion)
}

func TestSearch_BlankQueryFailsBeforeAnyIO(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	for _, q := range []string{"", " ", "\t\n ", "  "} {
		t.Run(fmt.Sprintf("%q", q), func(t *testing.T) {
			s, err := Search(context.Background(), q, missing, Options{})

			require.Error(t, err)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, ErrBlankQuery)
			assert.Equal(t, fterrors.CategoryValidation, fterrors.GetCategory(err))
		})
	}
}

func TestSearch_UnknownEncodingFailsSynchronously(t *testing.T) {
	s, err := Search(context.Background(), "x", t.TempDir(), Options{Encoding: "no-such-charset"})

	assert.Nil(t, s)
	assert.Equal(t, fterrors.ErrCodeInvalidEncoding, fterrors.GetCode(err))
}

func TestSearch_EveryOccurrenceIsARealMatch(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for i := range 12 {
		var sb strings.Builder
		for line := range 30 {
			fmt.Fprintf(&sb, "Line %d of file %d: ABAB abab äbAB\n", line, i)
		}
		files[filepath.Join(fmt.Sprintf("d%d", i%3), fmt.Sprintf("f%d.txt", i))] = sb.String()
	}
	writeTree(t, root, files)

	query := "bAb"
	occ, _, _, err := Collect(context.Background(), query, root, Options{Concurrency: 4}, 0)
	require.NoError(t, err)
	require.NotEmpty(t, occ)

	folded := match.Fold(query)
	qLen := utf8.RuneCountInString(folded)
	lines := map[string][]string{}
	for _, o := range occ {
		if _, ok := lines[o.File]; !ok {
			data, err := os.ReadFile(o.File)
			require.NoError(t, err)
			lines[o.File] = strings.Split(string(data), "\n")
		}
		require.GreaterOrEqual(t, o.Line, 1)
		require.GreaterOrEqual(t, o.Offset, 1)
		runes := []rune(match.Fold(lines[o.File][o.Line-1]))
		assert.Equal(t, folded, string(runes[o.Offset-1:o.Offset-1+qLen]), o.String())
	}
	// "abab" has an overlapping hit at 2, "ABAB" at 2 and "äbAB" at 2.
	assert.Len(t, occ, 12*30*3)
}

func TestSearch_PerFileOrderIsPreserved(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for i := range 8 {
		files[fmt.Sprintf("f%d.txt", i)] = strings.Repeat("aaaa\nxx\naa\n", 40)
	}
	writeTree(t, root, files)

	occ, _, _, err := Collect(context.Background(), "a", root, Options{Concurrency: 4, BufferSize: 1}, 0)
	require.NoError(t, err)

	last := map[string]Occurrence{}
	for _, o := range occ {
		if prev, ok := last[o.File]; ok {
			ordered := o.Line > prev.Line || (o.Line == prev.Line && o.Offset > prev.Offset)
			assert.True(t, ordered, "%s after %s", o, prev)
		}
		last[o.File] = o
	}
	assert.Len(t, occ, 8*40*6)
}

func TestSearch_ConcurrencyIsBounded(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for i := range 30 {
		files[fmt.Sprintf("f%02d.txt", i)] = strings.Repeat("x x x x\n", 20)
	}
	writeTree(t, root, files)

	for _, limit := range []int{1, 3} {
		t.Run(fmt.Sprintf("limit %d", limit), func(t *testing.T) {
			s, err := Search(context.Background(), "x", root, Options{Concurrency: limit, BufferSize: 1})
			require.NoError(t, err)

			n := 0
			for range s.Results() {
				n++
				if n%50 == 0 {
					time.Sleep(time.Millisecond)
				}
			}
			require.NoError(t, s.Wait())

			st := s.Stats()
			assert.Equal(t, 30*20*4, n)
			assert.GreaterOrEqual(t, st.MaxInFlight, int64(1))
			assert.LessOrEqual(t, st.MaxInFlight, int64(limit))
		})
	}
}

func TestOptions_DefaultConcurrency(t *testing.T) {
	assert.Equal(t, runtime.NumCPU(), Options{}.concurrency())
	assert.Equal(t, runtime.NumCPU(), Options{Concurrency: -2}.concurrency())
	assert.Equal(t, 7, Options{Concurrency: 7}.concurrency())
}

func bigTree(t *testing.T, files, linesPerFile int) string {
	t.Helper()
	root := t.TempDir()
	tree := map[string]string{}
	for i := range files {
		tree[fmt.Sprintf("f%03d.txt", i)] = strings.Repeat("needle needle needle\n", linesPerFile)
	}
	writeTree(t, root, tree)
	return root
}

func TestSession_CancelStopsEmission(t *testing.T) {
	root := bigTree(t, 20, 2000)

	s, err := Search(context.Background(), "needle", root, Options{Concurrency: 1, BufferSize: 1})
	require.NoError(t, err)

	first, ok := <-s.Results()
	require.True(t, ok)
	s.Cancel()

	files := map[string]bool{first.File: true}
	drained := 0
	deadline := time.After(5 * time.Second)
loop:
	for {
		select {
		case o, ok := <-s.Results():
			if !ok {
				break loop
			}
			files[o.File] = true
			drained++
		case <-deadline:
			t.Fatal("stream did not close after Cancel")
		}
	}

	assert.NoError(t, s.Err())
	assert.True(t, s.Cancelled())
	assert.LessOrEqual(t, drained, 1, "only the buffered occurrence may follow Cancel")
	assert.Len(t, files, 1, "no file may start after Cancel")
	assert.Less(t, s.Stats().Occurrences, int64(20*2000*3))
}

func TestSession_CancelIsIdempotent(t *testing.T) {
	root := bigTree(t, 2, 10)

	s, err := Search(context.Background(), "needle", root, Options{})
	require.NoError(t, err)

	s.Cancel()
	s.Cancel()
	for range s.Results() {
	}
	require.NoError(t, s.Wait())
	s.Cancel()

	assert.NotPanics(t, s.Cancel)
}

func TestSession_CancelAfterCompletion(t *testing.T) {
	root := bigTree(t, 2, 3)

	s, err := Search(context.Background(), "needle", root, Options{})
	require.NoError(t, err)
	for range s.Results() {
	}
	require.NoError(t, s.Wait())

	s.Cancel()

	assert.False(t, s.Cancelled())
	assert.Equal(t, int64(2*3*3), s.Stats().Occurrences)
}

func TestSession_ParentContextCancels(t *testing.T) {
	root := bigTree(t, 10, 2000)
	ctx, cancel := context.WithCancel(context.Background())

	s, err := Search(ctx, "needle", root, Options{Concurrency: 2, BufferSize: 1})
	require.NoError(t, err)
	<-s.Results()
	cancel()

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish after parent cancel")
	}
	assert.NoError(t, s.Err())
	assert.True(t, s.Cancelled())
}

func TestSession_DeadlineIsCancellation(t *testing.T) {
	root := bigTree(t, 10, 2000)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	s, err := Search(ctx, "needle", root, Options{Concurrency: 1, BufferSize: 1})
	require.NoError(t, err)

	// Never consume: producers block on the full buffer until the deadline.
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not honor the deadline")
	}
	assert.NoError(t, s.Err())
	assert.True(t, s.Cancelled())
}

func TestSession_AllBreakCancels(t *testing.T) {
	root := bigTree(t, 5, 1000)

	s, err := Search(context.Background(), "needle", root, Options{BufferSize: 1})
	require.NoError(t, err)

	n := 0
	for range s.All() {
		n++
		if n == 3 {
			break
		}
	}

	require.NoError(t, s.Wait())
	assert.True(t, s.Cancelled())
	assert.Equal(t, 3, n)
}

func TestCollect_Limit(t *testing.T) {
	root := bigTree(t, 3, 100)

	occ, _, truncated, err := Collect(context.Background(), "needle", root, Options{}, 10)

	require.NoError(t, err)
	assert.True(t, truncated)
	assert.Len(t, occ, 10)
}

func TestCollect_LimitNotReached(t *testing.T) {
	root := bigTree(t, 1, 2)

	occ, _, truncated, err := Collect(context.Background(), "needle", root, Options{}, 6)

	require.NoError(t, err)
	assert.False(t, truncated)
	assert.Len(t, occ, 6)
}

func TestSearch_PermissionErrorEndsSearch(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	root := bigTree(t, 5, 10)
	locked := filepath.Join(root, "locked.txt")
	writeTree(t, root, map[string]string{"locked.txt": "needle"})
	require.NoError(t, os.Chmod(locked, 0o000))

	s, err := Search(context.Background(), "needle", root, Options{Concurrency: 2})
	require.NoError(t, err)
	for range s.Results() {
	}

	err = s.Wait()
	require.Error(t, err)
	assert.Equal(t, fterrors.ErrCodeFilePermission, fterrors.GetCode(err))
	assert.Equal(t, locked, err.(*fterrors.Error).Details["path"])
	assert.False(t, s.Cancelled())
}

func TestSearch_MissingRootSurfacesThroughErr(t *testing.T) {
	s, err := Search(context.Background(), "x", filepath.Join(t.TempDir(), "missing"), Options{})
	require.NoError(t, err)

	for range s.Results() {
	}

	assert.Equal(t, fterrors.ErrCodeWalkFailed, fterrors.GetCode(s.Wait()))
}

func TestSearch_EmptyTree(t *testing.T) {
	occ, stats, _, err := Collect(context.Background(), "x", t.TempDir(), Options{}, 0)

	require.NoError(t, err)
	assert.Empty(t, occ)
	assert.Zero(t, stats.FilesScanned)
}

func TestOccurrence_String(t *testing.T) {
	o := Occurrence{File: "/tmp/top.txt", Line: 3, Offset: 15}
	assert.Equal(t, "/tmp/top.txt: 3:15", o.String())
}
