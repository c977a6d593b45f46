package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/findtext/internal/config"
	fterrors "github.com/Aman-CERP/findtext/internal/errors"
	"github.com/Aman-CERP/findtext/internal/filescan"
	"github.com/Aman-CERP/findtext/internal/history"
	"github.com/Aman-CERP/findtext/internal/output"
	"github.com/Aman-CERP/findtext/internal/preflight"
	"github.com/Aman-CERP/findtext/internal/search"
	"github.com/Aman-CERP/findtext/internal/ui"
)

// progressInterval is how often the live status line is refreshed.
const progressInterval = 100 * time.Millisecond

// searchOptions holds CLI flags for search.
type searchOptions struct {
	concurrency int
	encoding    string
	exclude     []string
	gitignore   bool
	format      string // "text", "json"
	color       string // "auto", "always", "never"
	timeout     time.Duration
	limit       int
	noHistory   bool
	quiet       bool
	verbose     bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query> [dir]",
		Short: "Search a directory tree for text",
		Long: `Search every file under dir (default: the current directory) for query,
ignoring case, and print each occurrence as it is found.

Occurrences go to stdout; status lines go to stderr:
  Search started
  Search completed (N occurrences in F files, S skipped, T)
  Search cancelled
  Error: <message>

Exit status is 0 when the search completes, 130 when it is cancelled
(Ctrl+C or SIGTERM), and 1 on error.`,
		Example: `  # Search the current directory
  findtext search "connection refused"

  # Search another tree with 4 workers, as JSON
  findtext search TODO ~/src/project -j 4 --format json

  # Honor .gitignore and skip vendored code
  findtext search "deprecated" . --gitignore --exclude vendor/

  # Stop after the first 10 occurrences
  findtext search error /var/log --limit 10`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 2 {
				dir = args[1]
			}
			return runSearch(cmd.Context(), cmd, args[0], dir, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", 0, "Files scanned at once (default: number of CPUs)")
	cmd.Flags().StringVar(&opts.encoding, "encoding", "", "File encoding, e.g. utf-8, windows-1252, utf-16le")
	cmd.Flags().StringArrayVar(&opts.exclude, "exclude", nil, "Gitignore-style pattern to skip (repeatable)")
	cmd.Flags().BoolVar(&opts.gitignore, "gitignore", false, "Honor .gitignore files and skip .git directories")
	cmd.Flags().StringVar(&opts.format, "format", "", "Output format: text, json")
	cmd.Flags().StringVar(&opts.color, "color", "", "Color output: auto, always, never")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Stop the search after this long (e.g. 30s)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Stop after this many occurrences (0 = no limit)")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not record this search in history")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Print only occurrences and errors")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Report every skipped file")

	return cmd
}

// applyFlags overrides cfg with the flags the user set.
func (o searchOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("concurrency") {
		if o.concurrency < 0 {
			return fterrors.New(fterrors.ErrCodeInvalidInput, "concurrency must not be negative", nil)
		}
		cfg.Search.Concurrency = o.concurrency
	}
	if flags.Changed("encoding") {
		if err := filescan.ValidateEncoding(o.encoding); err != nil {
			return err
		}
		cfg.Search.Encoding = o.encoding
	}
	if flags.Changed("gitignore") {
		cfg.Walk.RespectGitignore = o.gitignore
	}
	if flags.Changed("format") {
		cfg.Output.Format = o.format
	}
	if flags.Changed("color") {
		cfg.Output.Color = o.color
	}
	cfg.Walk.Exclude = append(cfg.Walk.Exclude, o.exclude...)
	if o.limit < 0 {
		return fterrors.New(fterrors.ErrCodeInvalidInput, "limit must not be negative", nil)
	}
	return cfg.Validate()
}

func runSearch(ctx context.Context, cmd *cobra.Command, query, dir string, opts searchOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	// Until the renderer exists, failures go out as plain lines.
	fail := func(root string, cfg *config.Config, err error) error {
		if opts.verbose {
			fmt.Fprintln(stderr, fterrors.FormatForUser(err, true))
		} else {
			fmt.Fprintln(stderr, ui.ErrorLine(err))
		}
		slog.Warn("search_failed", append([]any{slog.String("query", query)}, fterrors.LogAttrs(err)...)...)
		if cfg == nil {
			if cfg, _ = loadConfig(""); cfg == nil {
				cfg = config.NewConfig()
			}
		}
		if cfg.History.Enabled && !opts.noHistory {
			recordHistory(cfg, history.Failed(query, root, err))
		}
		return &ExitError{Code: exitError, Err: err}
	}

	if strings.TrimSpace(query) == "" {
		blank := *search.ErrBlankQuery
		return fail(dir, nil, &blank)
	}

	root, err := preflight.ValidateRoot(dir)
	if err != nil {
		return fail(dir, nil, err)
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return fail(root, nil, err)
	}
	if err := opts.applyFlags(cmd, cfg); err != nil {
		return fail(root, nil, err)
	}
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return fail(root, nil, err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	// Occurrences own stdout. When a person is reading them there, the
	// status stays on plain lines so the two streams do not interleave.
	stdoutTTY := ui.IsTTY(stdout)
	renderer := ui.NewRenderer(ui.NewConfig(stderr,
		ui.WithForcePlain(stdoutTTY),
		ui.WithNoColor(!ui.ColorEnabled(cfg.Output.Color, stderr)),
		ui.WithQuiet(opts.quiet),
		ui.WithVerbose(opts.verbose),
	))
	if err := renderer.Start(ctx); err != nil {
		return fail(root, cfg, err)
	}
	defer func() { _ = renderer.Stop() }()

	searchOpts := cfg.SearchOptions()
	searchOpts.Logger = slog.Default()
	searchOpts.OnSkip = func(r filescan.Result) {
		reason := "not valid text"
		if r.SkipReason != nil {
			reason = r.SkipReason.Error()
		}
		renderer.Skip(ui.SkipEvent{File: r.Path, Reason: reason})
	}

	session, err := search.Search(ctx, query, root, searchOpts)
	if err != nil {
		renderer.Complete(ui.CompletionStats{Outcome: ui.OutcomeFailed, Err: err})
		if cfg.History.Enabled && !opts.noHistory {
			recordHistory(cfg, history.Failed(query, root, err))
		}
		return &ExitError{Code: exitError, Err: err}
	}
	renderer.Started(root, query)
	slog.Info("search_started",
		slog.String("query", query),
		slog.String("root", root),
		slog.Int("concurrency", session.Concurrency),
		slog.String("encoding", filescan.CanonicalEncoding(cfg.Search.Encoding)))

	go reportProgress(session, renderer)

	printer := output.NewPrinter(stdout, output.PrinterOptions{
		Format:    format,
		Color:     ui.ColorEnabled(cfg.Output.Color, stdout),
		FlushEach: stdoutTTY,
	})

	truncated, printErr := printOccurrences(session, printer, opts.limit)
	if err := printer.Flush(); err != nil && printErr == nil {
		printErr = err
	}

	searchErr := session.Wait()
	stats := session.Stats()
	entry := history.FromSession(session)

	completion := ui.CompletionStats{
		Occurrences:  int64(printer.Count()),
		FilesScanned: stats.FilesScanned,
		FilesSkipped: stats.FilesSkipped,
		Duration:     stats.Duration,
		Outcome:      ui.OutcomeCompleted,
	}
	code := exitOK
	switch {
	case searchErr != nil:
		completion.Outcome, completion.Err = ui.OutcomeFailed, searchErr
		code = exitError
	case printErr != nil:
		// Lost stdout, typically a closed pipe.
		completion.Outcome, completion.Err = ui.OutcomeFailed, printErr
		entry.Outcome, entry.Error = history.OutcomeFailed, printErr.Error()
		code = exitError
	case truncated:
		entry.Outcome = history.OutcomeCompleted
	case session.Cancelled() && errors.Is(ctx.Err(), context.DeadlineExceeded):
		err := fterrors.New(fterrors.ErrCodeSearchFailed,
			fmt.Sprintf("search timed out after %s", opts.timeout), context.DeadlineExceeded)
		completion.Outcome, completion.Err = ui.OutcomeFailed, err
		code = exitError
	case session.Cancelled():
		completion.Outcome = ui.OutcomeCancelled
		code = exitCancelled
	}
	renderer.Complete(completion)

	slog.Info("search_finished",
		slog.String("outcome", string(entry.Outcome)),
		slog.Int64("occurrences", completion.Occurrences),
		slog.Int64("files_scanned", stats.FilesScanned),
		slog.Int64("files_skipped", stats.FilesSkipped),
		slog.Int64("max_in_flight", stats.MaxInFlight),
		slog.Duration("duration", stats.Duration),
		slog.Bool("truncated", truncated))

	if cfg.History.Enabled && !opts.noHistory {
		recordHistory(cfg, entry)
	}

	if code != exitOK {
		return &ExitError{Code: code, Err: completion.Err}
	}
	return nil
}

// printOccurrences prints the session's occurrences until the stream ends,
// limit is reached, or stdout fails. The session is cancelled in the
// latter two cases.
func printOccurrences(s *search.Session, p *output.Printer, limit int) (truncated bool, err error) {
	for occ := range s.All() {
		if err := p.Print(occ); err != nil {
			return false, err
		}
		if limit > 0 && p.Count() >= limit {
			return true, nil
		}
	}
	return false, nil
}

// reportProgress feeds the renderer the session counters until it ends.
func reportProgress(s *search.Session, r ui.Renderer) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.Done():
			return
		case <-ticker.C:
			st := s.Stats()
			r.UpdateProgress(ui.ProgressEvent{
				FilesScanned: st.FilesScanned,
				FilesSkipped: st.FilesSkipped,
				Occurrences:  st.Occurrences,
			})
		}
	}
}

// recordHistory appends e to the history database and prunes it.
// History is best effort: failures are logged, never reported.
func recordHistory(cfg *config.Config, e history.Entry) {
	if strings.TrimSpace(cfg.History.Path) == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		slog.Warn("history_unavailable", fterrors.LogAttrs(err)...)
		return
	}
	defer func() { _ = store.Close() }()

	if _, err := store.Record(ctx, e); err != nil {
		slog.Warn("history_record_failed", fterrors.LogAttrs(err)...)
		return
	}
	if cfg.History.MaxEntries > 0 {
		if _, err := store.Prune(ctx, cfg.History.MaxEntries); err != nil {
			slog.Warn("history_prune_failed", fterrors.LogAttrs(err)...)
		}
	}
}
