package mcp

import (
	"fmt"
	"strings"
)

// FormatFindText renders a find_text result as text, one occurrence per
// line in the CLI's "<file>: <line>:<offset>" form.
func FormatFindText(query string, out FindTextOutput) string {
	var sb strings.Builder

	n := len(out.Occurrences)
	if n == 0 {
		fmt.Fprintf(&sb, "No occurrences of %q found", query)
	} else {
		fmt.Fprintf(&sb, "Found %d occurrence%s of %q", n, plural(n), query)
	}
	fmt.Fprintf(&sb, " (%d files scanned, %d skipped)\n", out.FilesScanned, out.FilesSkipped)

	for _, o := range out.Occurrences {
		sb.WriteString(o.String())
		sb.WriteByte('\n')
	}

	if out.Truncated {
		fmt.Fprintf(&sb, "Stopped at the limit of %d occurrences; narrow the directory or raise the limit to see more.\n", n)
	}
	return sb.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// clampLimit clamps limit to [min, max], using defaultVal when unset.
func clampLimit(limit, defaultVal, min, max int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit < min {
		return min
	}
	if limit > max {
		return max
	}
	return limit
}
