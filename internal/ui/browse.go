package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/findtext/internal/search"
)

// DefaultMaxLines caps the result log of the browser.
const DefaultMaxLines = 10000

// resultBatch is the most occurrences moved into the log per update.
const resultBatch = 256

// SearchFunc starts a search. It is search.Search with the caller's
// options bound.
type SearchFunc func(ctx context.Context, query, root string) (*search.Session, error)

// ValidateFunc checks a directory and returns its absolute form.
type ValidateFunc func(dir string) (string, error)

// BrowseOptions configures the interactive browser.
type BrowseOptions struct {
	// Root prefills the directory field.
	Root     string
	Search   SearchFunc
	Validate ValidateFunc
	NoColor  bool
	// MaxLines bounds the result log (0 = DefaultMaxLines); the oldest
	// lines are dropped first.
	MaxLines int
}

// RunBrowser runs the interactive browser until the user quits or ctx is
// done. A search still running on exit is cancelled.
func RunBrowser(ctx context.Context, opts BrowseOptions) error {
	m := newBrowseModel(ctx, opts)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := program.Run()
	m.cancelSession()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

const (
	focusDir = iota
	focusQuery
)

// resultsMsg carries a batch of occurrences for search generation gen.
type resultsMsg struct {
	gen         int
	occurrences []search.Occurrence
	done        bool
}

// browseModel is the bubbletea model of the search window.
type browseModel struct {
	ctx    context.Context
	opts   BrowseOptions
	styles Styles

	dir     textinput.Model
	query   textinput.Model
	focus   int
	log     viewport.Model
	spinner spinner.Model

	lines     []string
	inlineErr string

	// gen identifies the current search; batches from older searches are
	// dropped.
	gen     int
	session *search.Session
	running bool

	width, height int
}

func newBrowseModel(ctx context.Context, opts BrowseOptions) *browseModel {
	if opts.MaxLines <= 0 {
		opts.MaxLines = DefaultMaxLines
	}
	styles := GetStyles(opts.NoColor || DetectNoColor())

	dir := textinput.New()
	dir.Prompt = "Directory: "
	dir.Placeholder = "path to directory"
	dir.SetValue(opts.Root)
	dir.Focus()

	query := textinput.New()
	query.Prompt = "Query:     "
	query.Placeholder = "text to find"

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))

	m := &browseModel{
		ctx:     ctx,
		opts:    opts,
		styles:  styles,
		dir:     dir,
		query:   query,
		log:     viewport.New(80, 20),
		spinner: s,
		width:   80,
		height:  24,
	}
	if opts.Root != "" {
		m.setFocus(focusQuery)
	}
	return m
}

// Init implements tea.Model.
func (m *browseModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case resultsMsg:
		return m, m.handleResults(msg)

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, m.updateInput(msg)
}

func (m *browseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancelSession()
		return m, tea.Quit

	case "esc":
		if m.running {
			m.cancelSearch()
			return m, nil
		}
		return m, tea.Quit

	case "tab", "shift+tab":
		if m.focus == focusDir {
			return m, m.setFocus(focusQuery)
		}
		return m, m.setFocus(focusDir)

	case "enter":
		return m, m.startSearch()

	case "up":
		m.log.LineUp(1)
		return m, nil
	case "down":
		m.log.LineDown(1)
		return m, nil
	case "pgup":
		m.log.PageUp()
		return m, nil
	case "pgdown":
		m.log.PageDown()
		return m, nil
	}

	return m, m.updateInput(msg)
}

func (m *browseModel) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.focus == focusDir {
		m.dir, cmd = m.dir.Update(msg)
	} else {
		m.query, cmd = m.query.Update(msg)
	}
	return cmd
}

func (m *browseModel) setFocus(f int) tea.Cmd {
	m.focus = f
	if f == focusDir {
		m.query.Blur()
		return m.dir.Focus()
	}
	m.dir.Blur()
	return m.query.Focus()
}

// startSearch validates the inputs and starts a new search, cancelling
// the one still running.
func (m *browseModel) startSearch() tea.Cmd {
	root, err := m.opts.Validate(m.dir.Value())
	if err != nil {
		m.inlineErr = ErrorLine(err)
		return m.setFocus(focusDir)
	}
	if strings.TrimSpace(m.query.Value()) == "" {
		m.inlineErr = "Error: Enter text to find"
		return m.setFocus(focusQuery)
	}
	m.inlineErr = ""

	if m.running {
		m.cancelSession()
	}
	m.gen++
	m.lines = m.lines[:0]

	session, err := m.opts.Search(m.ctx, m.query.Value(), root)
	if err != nil {
		m.running = false
		m.appendLines(m.styles.Error.Render(ErrorLine(err)))
		return nil
	}

	m.session = session
	m.running = true
	m.appendLines(m.styles.Active.Render(StatusStarted))
	return tea.Batch(readResults(m.gen, session), m.spinner.Tick)
}

// cancelSearch stops the running search and logs it at once; the
// remaining batches of that search are ignored.
func (m *browseModel) cancelSearch() {
	m.cancelSession()
	m.gen++
	m.running = false
	m.appendLines(m.styles.Warning.Render(StatusCancelled))
}

func (m *browseModel) cancelSession() {
	if m.session != nil {
		m.session.Cancel()
	}
}

func (m *browseModel) handleResults(msg resultsMsg) tea.Cmd {
	if msg.gen != m.gen {
		return nil
	}

	lines := make([]string, 0, len(msg.occurrences)+1)
	for _, o := range msg.occurrences {
		lines = append(lines, o.String())
	}

	if !msg.done {
		m.appendLines(lines...)
		return readResults(m.gen, m.session)
	}

	m.running = false
	lines = append(lines, m.finalLine())
	m.appendLines(lines...)
	return nil
}

// finalLine renders how the current session ended.
func (m *browseModel) finalLine() string {
	err := m.session.Wait()
	st := m.session.Stats()
	stats := CompletionStats{
		Occurrences:  st.Occurrences,
		FilesScanned: st.FilesScanned,
		FilesSkipped: st.FilesSkipped,
		Duration:     st.Duration,
		Outcome:      OutcomeCompleted,
		Err:          err,
	}
	switch {
	case err != nil:
		stats.Outcome = OutcomeFailed
		return m.styles.Error.Render(OutcomeLine(stats))
	case m.session.Cancelled():
		stats.Outcome = OutcomeCancelled
		return m.styles.Warning.Render(OutcomeLine(stats))
	default:
		return m.styles.Success.Render(OutcomeLine(stats))
	}
}

// readResults blocks for the next occurrence, then drains whatever else
// is already buffered, up to resultBatch.
func readResults(gen int, s *search.Session) tea.Cmd {
	return func() tea.Msg {
		results := s.Results()
		o, ok := <-results
		if !ok {
			return resultsMsg{gen: gen, done: true}
		}

		batch := []search.Occurrence{o}
		for len(batch) < resultBatch {
			select {
			case o, ok := <-results:
				if !ok {
					return resultsMsg{gen: gen, occurrences: batch, done: true}
				}
				batch = append(batch, o)
			default:
				return resultsMsg{gen: gen, occurrences: batch}
			}
		}
		return resultsMsg{gen: gen, occurrences: batch}
	}
}

// appendLines adds lines to the log, dropping the oldest beyond MaxLines,
// and keeps the view pinned to the bottom when it already was.
func (m *browseModel) appendLines(lines ...string) {
	follow := m.log.AtBottom()

	m.lines = append(m.lines, lines...)
	if extra := len(m.lines) - m.opts.MaxLines; extra > 0 {
		m.lines = append(m.lines[:0], m.lines[extra:]...)
	}

	m.log.SetContent(strings.Join(m.lines, "\n"))
	if follow {
		m.log.GotoBottom()
	}
}

func (m *browseModel) resize(width, height int) {
	m.width, m.height = width, height
	m.dir.Width = max(width-len(m.dir.Prompt)-2, 10)
	m.query.Width = max(width-len(m.query.Prompt)-2, 10)
	m.log.Width = width
	// Title, two inputs, inline error, separator, and help line.
	m.log.Height = max(height-6, 3)
	m.log.GotoBottom()
}

// View implements tea.Model.
func (m *browseModel) View() string {
	title := m.styles.Header.Render("findtext")
	if m.running {
		title += " " + m.spinner.View()
	}

	inlineErr := ""
	if m.inlineErr != "" {
		inlineErr = m.styles.Error.Render(m.inlineErr)
	}

	sections := []string{
		title,
		m.dir.View(),
		m.query.View(),
		inlineErr,
		m.styles.Dim.Render(strings.Repeat("─", max(m.width, 1))),
		m.log.View(),
		m.renderHelp(),
	}
	return strings.Join(sections, "\n")
}

func (m *browseModel) renderHelp() string {
	esc := "esc quit"
	if m.running {
		esc = "esc cancel"
	}
	count := fmt.Sprintf("%d lines", len(m.lines))
	return m.styles.Dim.Render(strings.Join([]string{"enter search", "tab switch", esc, "↑/↓ pgup/pgdn scroll", count}, " • "))
}
