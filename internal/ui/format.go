package ui

import (
	"errors"
	"fmt"
	"time"

	fterrors "github.com/Aman-CERP/findtext/internal/errors"
)

// Status lines shared by every renderer and the browser.
const (
	StatusStarted   = "Search started"
	StatusCancelled = "Search cancelled"
)

// CompletedLine renders the summary of a completed search.
func CompletedLine(s CompletionStats) string {
	return fmt.Sprintf("Search completed (%d occurrences in %d files, %d skipped, %s)",
		s.Occurrences, s.FilesScanned, s.FilesSkipped, FormatDuration(s.Duration))
}

// ErrorLine renders "Error: <message>", using the structured message when
// err carries one.
func ErrorLine(err error) string {
	var e *fterrors.Error
	if errors.As(err, &e) {
		return "Error: " + e.Message
	}
	return "Error: " + err.Error()
}

// OutcomeLine renders the final status line for s.
func OutcomeLine(s CompletionStats) string {
	switch s.Outcome {
	case OutcomeCancelled:
		return StatusCancelled
	case OutcomeFailed:
		if s.Err == nil {
			return "Error: search failed"
		}
		return ErrorLine(s.Err)
	default:
		return CompletedLine(s)
	}
}

// FormatDuration formats a duration in a human-friendly way.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		d = d.Round(time.Second)
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// truncatePath shortens path from the left to at most maxLen bytes.
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	if maxLen <= 3 {
		return "..."
	}
	return "..." + path[len(path)-maxLen+3:]
}
