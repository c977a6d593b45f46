package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/findtext/internal/search"
)

// Format selects how occurrences are printed.
type Format string

const (
	// FormatText prints "<file>: <line>:<offset>".
	FormatText Format = "text"
	// FormatJSON prints one JSON object per line.
	FormatJSON Format = "json"
)

// ParseFormat accepts "text" or "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text or json)", s)
	}
}

// PrinterOptions configures a Printer.
type PrinterOptions struct {
	Format Format
	Color  bool
	// FlushEach writes every occurrence through immediately. Use it when a
	// person is watching; leave it off for pipes.
	FlushEach bool
}

// Printer writes occurrences to an output stream. Safe for concurrent use.
type Printer struct {
	mu    sync.Mutex
	w     *bufio.Writer
	opts  PrinterOptions
	enc   *json.Encoder
	file  lipgloss.Style
	pos   lipgloss.Style
	count int
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer, opts PrinterOptions) *Printer {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	w := bufio.NewWriter(out)
	p := &Printer{
		w:    w,
		opts: opts,
		enc:  json.NewEncoder(w),
		file: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		pos:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	}
	p.enc.SetEscapeHTML(false)
	return p
}

// Print writes one occurrence.
func (p *Printer) Print(occ search.Occurrence) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	switch p.opts.Format {
	case FormatJSON:
		err = p.enc.Encode(occ)
	default:
		_, err = p.w.WriteString(p.text(occ) + "\n")
	}
	if err != nil {
		return err
	}
	p.count++

	if p.opts.FlushEach {
		return p.w.Flush()
	}
	return nil
}

func (p *Printer) text(occ search.Occurrence) string {
	if !p.opts.Color {
		return occ.String()
	}
	line := strconv.Itoa(occ.Line)
	offset := strconv.Itoa(occ.Offset)
	return p.file.Render(occ.File) + ": " + p.pos.Render(line) + ":" + p.pos.Render(offset)
}

// Count returns how many occurrences were printed.
func (p *Printer) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Flush writes any buffered output.
func (p *Printer) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.w.Flush()
}
