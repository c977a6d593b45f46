package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// PlainRenderer writes one status line per event (for CI and pipes).
type PlainRenderer struct {
	mu      sync.Mutex
	out     io.Writer
	quiet   bool
	verbose bool
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{
		out:     cfg.Output,
		quiet:   cfg.Quiet,
		verbose: cfg.Verbose,
	}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// Started implements Renderer.
func (r *PlainRenderer) Started(root, query string) {
	if r.quiet {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintln(r.out, StatusStarted)
}

// UpdateProgress implements Renderer. Plain output has no live line.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {}

// Skip implements Renderer.
func (r *PlainRenderer) Skip(event SkipEvent) {
	if !r.verbose || r.quiet {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.out, "WARN: %s: %s\n", event.File, event.Reason)
}

// Complete implements Renderer. Failures print even when quiet.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	if r.quiet && stats.Outcome != OutcomeFailed {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintln(r.out, OutcomeLine(stats))
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

var _ Renderer = (*PlainRenderer)(nil)
