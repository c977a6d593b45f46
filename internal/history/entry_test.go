package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fterrors "github.com/Aman-CERP/findtext/internal/errors"
	"github.com/Aman-CERP/findtext/internal/search"
)

func TestFromSession_Completed(t *testing.T) {
	// Given: a finished search over a small tree
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("needle needle\n"), 0o644))

	s, err := search.Search(context.Background(), "needle", root, search.Options{Concurrency: 2})
	require.NoError(t, err)
	for range s.Results() {
	}

	// When: building the entry
	e := FromSession(s)

	// Then: counters and outcome are copied
	assert.Equal(t, "needle", e.Query)
	assert.Equal(t, root, e.Root)
	assert.Equal(t, 2, e.Concurrency)
	assert.Equal(t, int64(2), e.Occurrences)
	assert.Equal(t, int64(1), e.FilesScanned)
	assert.Equal(t, OutcomeCompleted, e.Outcome)
	assert.False(t, e.StartedAt.IsZero())
}

func TestFromSession_Cancelled(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x\n"), 0o644))

	s, err := search.Search(context.Background(), "x", root, search.Options{})
	require.NoError(t, err)
	s.Cancel()
	_ = s.Wait()

	e := FromSession(s)

	// A search that finished before the cancel landed counts as completed.
	assert.Contains(t, []Outcome{OutcomeCancelled, OutcomeCompleted}, e.Outcome)
	assert.Empty(t, e.Error)
}

func TestFromSession_Failed(t *testing.T) {
	s, err := search.Search(context.Background(), "x", filepath.Join(t.TempDir(), "missing"), search.Options{})
	require.NoError(t, err)
	_ = s.Wait()

	e := FromSession(s)

	assert.Equal(t, OutcomeFailed, e.Outcome)
	assert.Contains(t, e.Error, fterrors.ErrCodeWalkFailed)
}

func TestFailed(t *testing.T) {
	e := Failed("q", "/nope", fterrors.New(fterrors.ErrCodeFileNotFound, "Directory not found", nil))

	assert.Equal(t, OutcomeFailed, e.Outcome)
	assert.Equal(t, "ERR_201_FILE_NOT_FOUND: Directory not found", e.Error)
	assert.Equal(t, "/nope", e.Root)
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "", errorText(context.Canceled))
	assert.Equal(t, "boom", errorText(errors.New("boom")))
}
