// Package ui renders search status on the terminal and hosts the
// interactive browser.
package ui

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// Outcome is how a search ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeCancelled
	OutcomeFailed
)

// ProgressEvent is a snapshot of the running search counters.
type ProgressEvent struct {
	FilesScanned int64
	FilesSkipped int64
	Occurrences  int64
}

// SkipEvent reports a file left out because it could not be decoded.
type SkipEvent struct {
	File   string
	Reason string
}

// CompletionStats describes a finished search.
type CompletionStats struct {
	Occurrences  int64
	FilesScanned int64
	FilesSkipped int64
	Duration     time.Duration
	Outcome      Outcome
	Err          error
}

// Renderer displays the status of one search.
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// Started announces that the search began.
	Started(root, query string)

	// UpdateProgress refreshes the live counters.
	UpdateProgress(event ProgressEvent)

	// Skip reports a skipped file.
	Skip(event SkipEvent)

	// Complete prints the final status line.
	Complete(stats CompletionStats)

	// Stop stops the renderer and cleans up.
	Stop() error
}

// Config configures a Renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	// Quiet suppresses everything but errors.
	Quiet bool
	// Verbose prints every skipped file.
	Verbose bool
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithQuiet suppresses non-error status lines.
func WithQuiet(quiet bool) ConfigOption {
	return func(c *Config) {
		c.Quiet = quiet
	}
}

// WithVerbose reports every skipped file.
func WithVerbose(verbose bool) ConfigOption {
	return func(c *Config) {
		c.Verbose = verbose
	}
}

// NewConfig creates a Config writing to output.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer returns a live renderer for an interactive terminal and a
// plain one for pipes, CI, quiet runs, or when ForcePlain is set.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || cfg.Quiet || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}
	return NewLiveRenderer(cfg)
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}

// ColorEnabled resolves an auto|always|never color mode for w.
func ColorEnabled(mode string, w io.Writer) bool {
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "never":
		return false
	default:
		return IsTTY(w) && !DetectNoColor()
	}
}
