package profiling

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nonEmpty(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), path)
}

func TestOptions_Enabled(t *testing.T) {
	assert.False(t, Options{}.Enabled())
	assert.True(t, Options{Mem: "m"}.Enabled())
	assert.True(t, Options{Goroutine: "g"}.Enabled())
}

func TestStart_WritesEveryRequestedProfile(t *testing.T) {
	// Given: every profile requested
	dir := t.TempDir()
	opts := Options{
		CPU:       filepath.Join(dir, "cpu.prof"),
		Mem:       filepath.Join(dir, "mem.prof"),
		Trace:     filepath.Join(dir, "trace.out"),
		Goroutine: filepath.Join(dir, "goroutine.txt"),
	}
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// When: a run is profiled
	stop, err := Start(opts, logger)
	require.NoError(t, err)
	sum := 0
	for i := range 1000000 {
		sum += i
	}
	_ = sum
	require.NoError(t, stop())

	// Then: all files have content and memory stats were logged
	nonEmpty(t, opts.CPU)
	nonEmpty(t, opts.Mem)
	nonEmpty(t, opts.Trace)
	nonEmpty(t, opts.Goroutine)
	assert.Contains(t, logs.String(), "memory stats")
}

func TestStart_NothingRequested(t *testing.T) {
	stop, err := Start(Options{}, nil)
	require.NoError(t, err)
	assert.NoError(t, stop())
}

func TestStart_TraceFailureStopsCPU(t *testing.T) {
	// Given: a valid CPU path and an unwritable trace path
	dir := t.TempDir()
	opts := Options{
		CPU:   filepath.Join(dir, "cpu.prof"),
		Trace: filepath.Join(dir, "missing", "trace.out"),
	}

	// When: starting
	_, err := Start(opts, nil)

	// Then: it fails and the CPU profile was stopped, so it can start again
	require.Error(t, err)
	stop, err := Start(Options{CPU: filepath.Join(dir, "again.prof")}, nil)
	require.NoError(t, err)
	require.NoError(t, stop())
}

func TestProfiler_WriteHeapInvalidPath(t *testing.T) {
	err := NewProfiler().WriteHeap("/nonexistent/dir/heap.prof")
	assert.Error(t, err)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    uint64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{1073741824, "1.00 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatBytes(tt.bytes))
	}
}
