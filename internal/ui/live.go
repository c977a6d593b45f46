package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LiveRenderer draws a one-line live status (spinner, counters, file
// throughput) under the scrolling status lines. It runs a bubbletea program
// inline on the configured output. Keyboard input and signal handling are
// left to the caller so Ctrl+C still cancels the search.
type LiveRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *liveModel
	tracker *ProgressTracker
	started bool
	done    chan struct{}
}

// NewLiveRenderer creates a live renderer.
func NewLiveRenderer(cfg Config) *LiveRenderer {
	tracker := NewProgressTracker()
	model := newLiveModel(tracker, GetStyles(cfg.NoColor || DetectNoColor()))
	return &LiveRenderer{
		cfg:     cfg,
		tracker: tracker,
		model:   model,
		done:    make(chan struct{}),
	}
}

// Start implements Renderer.
func (r *LiveRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	r.program = tea.NewProgram(r.model,
		tea.WithContext(ctx),
		tea.WithOutput(r.cfg.Output),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// Started implements Renderer.
func (r *LiveRenderer) Started(root, query string) {
	r.println(r.model.styles.Active.Render(StatusStarted))
}

// UpdateProgress implements Renderer.
func (r *LiveRenderer) UpdateProgress(event ProgressEvent) {
	r.tracker.Update(event)
}

// Skip implements Renderer.
func (r *LiveRenderer) Skip(event SkipEvent) {
	r.tracker.AddSkip()
	if r.cfg.Verbose {
		r.println(r.model.styles.Warning.Render(fmt.Sprintf("WARN: %s: %s", event.File, event.Reason)))
	}
}

// Complete implements Renderer.
func (r *LiveRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		r.program.Send(completeMsg(stats))
	}
}

// Stop implements Renderer.
func (r *LiveRenderer) Stop() error {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()

	if program == nil {
		return nil
	}

	program.Quit()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		// Unresponsive program; do not hang the exit path.
	}
	return nil
}

func (r *LiveRenderer) println(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		r.program.Send(printMsg(line))
	}
}

type completeMsg CompletionStats
type printMsg string
type tickMsg time.Time

// liveModel is the bubbletea model for the live status line.
type liveModel struct {
	tracker  *ProgressTracker
	spinner  spinner.Model
	styles   Styles
	width    int
	complete bool
	stats    CompletionStats
}

func newLiveModel(tracker *ProgressTracker, styles Styles) *liveModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))

	return &liveModel{
		tracker: tracker,
		spinner: s,
		styles:  styles,
		width:   80,
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model.
func (m *liveModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// Update implements tea.Model.
func (m *liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case printMsg:
		return m, tea.Println(string(msg))

	case completeMsg:
		m.complete = true
		m.stats = CompletionStats(msg)
		return m, tea.Quit

	case tickMsg:
		if m.complete {
			return m, nil
		}
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *liveModel) View() string {
	if m.complete {
		return m.renderComplete() + "\n"
	}
	return m.renderStatus()
}

// renderStatus renders "⣾ 120 files · 2 skipped · 37 occurrences · 800/s ▁▃▅".
func (m *liveModel) renderStatus() string {
	stats := m.tracker.Stats()

	parts := []string{
		m.styles.Active.Render(fmt.Sprintf("%d files", stats.FilesScanned)),
		m.styles.Label.Render(fmt.Sprintf("%d skipped", stats.FilesSkipped)),
		m.styles.Active.Render(fmt.Sprintf("%d occurrences", stats.Occurrences)),
		m.styles.Label.Render(fmt.Sprintf("%.0f/s", stats.Speed.Current)),
	}
	line := m.spinner.View() + " " + strings.Join(parts, m.styles.Dim.Render(" · "))

	sparkWidth := min(max(m.width-lipgloss.Width(line)-2, 0), 30)
	if sparkWidth > 0 {
		line += " " + m.styles.Dim.Render(m.tracker.RenderSparkline(sparkWidth))
	}
	return line
}

func (m *liveModel) renderComplete() string {
	line := OutcomeLine(m.stats)
	switch m.stats.Outcome {
	case OutcomeFailed:
		return m.styles.Error.Render(line)
	case OutcomeCancelled:
		return m.styles.Warning.Render(line)
	default:
		return m.styles.Success.Render(line)
	}
}

var _ Renderer = (*LiveRenderer)(nil)
