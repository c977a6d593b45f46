// Package search runs a concurrent, cancellable, streaming search for a
// case-insensitive substring across every file under a directory.
//
// A search is started with Search, which returns a Session. The walk and
// dispatch happen on a goroutine owned by the session; file scans run on
// at most Options.Concurrency further goroutines and all write into one
// bounded channel, so a slow consumer throttles the whole pipeline.
package search

import (
	"context"
	"log/slog"
	"runtime"
	"strings"

	fterrors "github.com/Aman-CERP/findtext/internal/errors"
	"github.com/Aman-CERP/findtext/internal/filescan"
	"github.com/Aman-CERP/findtext/internal/match"
	"github.com/Aman-CERP/findtext/internal/scanner"
)

// Options configures a search. The zero value is valid.
type Options struct {
	// Concurrency limits simultaneous file scans (0 = runtime.NumCPU()).
	Concurrency int

	// BufferSize is the capacity of the results channel (0 = Concurrency*10).
	BufferSize int

	// Encoding is the WHATWG label files are decoded with (empty = strict UTF-8).
	Encoding string

	// MaxLineBytes is the longest line accepted before a file is skipped.
	MaxLineBytes int

	// Walk controls which files are visited.
	Walk scanner.WalkOptions

	// Logger receives session logs (nil = slog.Default()).
	Logger *slog.Logger

	// OnSkip is called, from a scan goroutine, for each undecodable file.
	OnSkip func(filescan.Result)
}

func (o Options) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return max(1, runtime.NumCPU())
}

// ErrBlankQuery is matched, via errors.Is, by the error Search returns for
// an empty or all-whitespace query.
var ErrBlankQuery = fterrors.New(fterrors.ErrCodeQueryEmpty, "search query must not be blank", nil).
	WithSuggestion("Provide a query with at least one non-space character")

// Search starts searching root for query and returns immediately.
//
// A blank query fails before any file system access. root is not
// validated; a missing or unreadable root surfaces through Session.Err.
// Cancelling ctx has the same effect as Session.Cancel.
func Search(ctx context.Context, query, root string, opts Options) (*Session, error) {
	if strings.TrimSpace(query) == "" {
		// A copy, so callers adding details do not change the shared value.
		blank := *ErrBlankQuery
		return nil, &blank
	}

	files, err := filescan.New(filescan.Options{
		Encoding:     opts.Encoding,
		MaxLineBytes: opts.MaxLineBytes,
	})
	if err != nil {
		return nil, err
	}
	walker, err := scanner.NewWalker(opts.Walk)
	if err != nil {
		return nil, err
	}

	concurrency := opts.concurrency()
	buffer := opts.BufferSize
	if buffer <= 0 {
		buffer = concurrency * 10
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	s := newSession(query, root, concurrency, buffer, cancel)

	c := &coordinator{
		foldedQuery: match.Fold(query),
		root:        root,
		permits:     int64(concurrency),
		walker:      walker,
		files:       files,
		logger:      logger,
		onSkip:      opts.OnSkip,
	}
	go c.run(ctx, s)

	return s, nil
}

// Collect runs a search to completion and returns its occurrences. A
// positive limit cancels the search once that many have been received and
// reports truncated.
func Collect(ctx context.Context, query, root string, opts Options, limit int) (occurrences []Occurrence, stats Stats, truncated bool, err error) {
	s, err := Search(ctx, query, root, opts)
	if err != nil {
		return nil, Stats{}, false, err
	}

	for o := range s.Results() {
		if limit > 0 && len(occurrences) >= limit {
			truncated = true
			s.Cancel()
			break
		}
		occurrences = append(occurrences, o)
	}

	err = s.Wait()
	return occurrences, s.Stats(), truncated, err
}
