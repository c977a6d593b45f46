package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	fterrors "github.com/Aman-CERP/findtext/internal/errors"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed successfully.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical warning.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the status as its lowercase name.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

// UnmarshalText parses pass, warn or fail in any case.
func (s *CheckStatus) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "pass":
		*s = StatusPass
	case "warn":
		*s = StatusWarn
	case "fail":
		*s = StatusFail
	default:
		return fmt.Errorf("unknown check status %q", text)
	}
	return nil
}

// CheckResult holds the result of a single preflight check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Checker runs the doctor checks.
type Checker struct {
	verbose     bool
	output      io.Writer
	concurrency int
	dataDir     string
	configErr   error
	configPath  string
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose prints check details.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// WithConcurrency sets the planned search concurrency (0 = number of CPUs).
func WithConcurrency(n int) Option {
	return func(c *Checker) {
		c.concurrency = n
	}
}

// WithDataDir sets the directory used for logs and history.
func WithDataDir(dir string) Option {
	return func(c *Checker) {
		c.dataDir = dir
	}
}

// WithConfigResult reports the outcome of loading the configuration, so
// the checker does not need to depend on the config package.
func WithConfigResult(path string, err error) Option {
	return func(c *Checker) {
		c.configPath = path
		c.configErr = err
	}
}

// New creates a new Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		output:  os.Stdout,
		dataDir: os.TempDir(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.concurrency <= 0 {
		c.concurrency = max(1, runtime.NumCPU())
	}
	return c
}

// RunAll runs every check for a search rooted at root.
func (c *Checker) RunAll(ctx context.Context, root string) []CheckResult {
	results := []CheckResult{c.CheckRoot(root)}
	if ctx.Err() != nil {
		return results
	}
	return append(results,
		c.CheckConfig(),
		c.CheckFileDescriptors(),
		c.CheckDataDir(),
	)
}

// CheckRoot applies ValidateRoot.
func (c *Checker) CheckRoot(root string) CheckResult {
	result := CheckResult{Name: "root", Required: true}

	abs, err := ValidateRoot(root)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		if e, ok := fterrors.As(err); ok {
			result.Message = e.Message
			result.Details = e.Details["path"]
		}
		return result
	}
	result.Status = StatusPass
	result.Message = abs
	return result
}

// CheckConfig reports whether the configuration loaded.
func (c *Checker) CheckConfig() CheckResult {
	result := CheckResult{Name: "config", Required: true}

	if c.configErr != nil {
		result.Status = StatusFail
		result.Message = c.configErr.Error()
		result.Details = c.configPath
		return result
	}
	result.Status = StatusPass
	result.Message = "OK"
	if c.configPath != "" {
		result.Message = c.configPath
	}
	return result
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns "ready", "ready_with_warnings" or "failed".
func (c *Checker) SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	for _, r := range results {
		if r.IsCritical() {
			return "failed"
		}
		if r.Status == StatusWarn || r.Status == StatusFail {
			hasWarnings = true
		}
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults prints check results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	_, _ = fmt.Fprintln(c.output, "findtext doctor")
	_, _ = fmt.Fprintln(c.output, "===============")
	_, _ = fmt.Fprintln(c.output)

	for _, r := range results {
		_, _ = fmt.Fprintf(c.output, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			_, _ = fmt.Fprintf(c.output, "      %s\n", r.Details)
		}
	}

	_, _ = fmt.Fprintln(c.output)
	_, _ = fmt.Fprintf(c.output, "Status: %s\n", strings.ToUpper(c.SummaryStatus(results)))

	var warnings, errs []string
	for _, r := range results {
		switch {
		case r.IsCritical():
			errs = append(errs, r.Name+": "+r.Message)
		case r.Status != StatusPass:
			warnings = append(warnings, r.Name+": "+r.Message)
		}
	}
	printList(c.output, "error(s)", errs)
	printList(c.output, "warning(s)", warnings)
}

func printList(w io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%d %s:\n", len(items), label)
	for _, item := range items {
		_, _ = fmt.Fprintf(w, "  - %s\n", item)
	}
}
