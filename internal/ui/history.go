package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Aman-CERP/findtext/internal/history"
)

// HistoryRenderer lists recorded searches.
type HistoryRenderer struct {
	out    io.Writer
	styles Styles
	now    func() time.Time
}

// NewHistoryRenderer creates a history renderer.
func NewHistoryRenderer(out io.Writer, noColor bool) *HistoryRenderer {
	return &HistoryRenderer{
		out:    out,
		styles: GetStyles(noColor),
		now:    time.Now,
	}
}

// Render prints one line per entry, newest first as given:
//
//	#12  2 minutes ago  completed  "needle" in /src (37 in 120 files, 2 skipped, 1.2s)
func (r *HistoryRenderer) Render(entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(r.out, r.styles.Dim.Render("No searches recorded."))
		return err
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %s  %s  %q in %s %s",
			r.styles.Label.Render(fmt.Sprintf("#%-4d", e.ID)),
			r.styles.Dim.Render(fmt.Sprintf("%-16s", r.formatTime(e.StartedAt))),
			r.renderOutcome(e.Outcome),
			e.Query,
			r.styles.File.Render(e.Root),
			r.summary(e))
		if _, err := fmt.Fprintln(r.out, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderJSON outputs entries as a JSON array.
func (r *HistoryRenderer) RenderJSON(entries []history.Entry) error {
	if entries == nil {
		entries = []history.Entry{}
	}
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}

func (r *HistoryRenderer) summary(e history.Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "(%d in %d files, %d skipped, %s)",
		e.Occurrences, e.FilesScanned, e.FilesSkipped, FormatDuration(e.Duration))
	if e.Error != "" {
		sb.WriteString(" ")
		sb.WriteString(r.styles.Error.Render(e.Error))
	}
	return sb.String()
}

func (r *HistoryRenderer) renderOutcome(o history.Outcome) string {
	label := fmt.Sprintf("%-9s", o)
	switch o {
	case history.OutcomeCompleted:
		return r.styles.Success.Render(label)
	case history.OutcomeCancelled:
		return r.styles.Warning.Render(label)
	case history.OutcomeFailed:
		return r.styles.Error.Render(label)
	default:
		return label
	}
}

// formatTime formats a time relative to now.
func (r *HistoryRenderer) formatTime(t time.Time) string {
	diff := r.now().Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}
