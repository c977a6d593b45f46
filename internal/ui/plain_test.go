package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainRenderer_Lifecycle(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))
	require.NoError(t, r.Start(context.Background()))

	// When: a search starts, progresses, and completes
	r.Started("/src", "needle")
	r.UpdateProgress(ProgressEvent{FilesScanned: 3, Occurrences: 4})
	r.Complete(CompletionStats{Occurrences: 4, FilesScanned: 3, Duration: time.Second})
	require.NoError(t, r.Stop())

	// Then: one status line per event, no live output
	assert.Equal(t, "Search started\nSearch completed (4 occurrences in 3 files, 0 skipped, 1.0s)\n", buf.String())
}

func TestPlainRenderer_NoANSICodes(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf, WithVerbose(true)))

	r.Started("/src", "x")
	r.Skip(SkipEvent{File: "/src/bin", Reason: "invalid UTF-8"})
	r.Complete(CompletionStats{Outcome: OutcomeCancelled})

	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestPlainRenderer_SkipOnlyWhenVerbose(t *testing.T) {
	// Given: a default and a verbose renderer
	quietBuf, verboseBuf := &bytes.Buffer{}, &bytes.Buffer{}
	event := SkipEvent{File: "/src/blob.bin", Reason: "invalid UTF-8"}

	// When: both see a skipped file
	NewPlainRenderer(NewConfig(quietBuf)).Skip(event)
	NewPlainRenderer(NewConfig(verboseBuf, WithVerbose(true))).Skip(event)

	// Then: only the verbose one reports it
	assert.Empty(t, quietBuf.String())
	assert.Equal(t, "WARN: /src/blob.bin: invalid UTF-8\n", verboseBuf.String())
}

func TestPlainRenderer_QuietPrintsOnlyFailures(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf, WithQuiet(true)))

	r.Started("/src", "x")
	r.Complete(CompletionStats{Outcome: OutcomeCompleted})
	r.Complete(CompletionStats{Outcome: OutcomeCancelled})
	assert.Empty(t, buf.String())

	r.Complete(CompletionStats{Outcome: OutcomeFailed, Err: errors.New("read failed")})
	assert.Equal(t, "Error: read failed\n", buf.String())
}
