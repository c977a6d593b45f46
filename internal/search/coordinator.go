package search

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	fterrors "github.com/Aman-CERP/findtext/internal/errors"
	"github.com/Aman-CERP/findtext/internal/filescan"
	"github.com/Aman-CERP/findtext/internal/scanner"
)

// coordinator drives one session: the walk runs on its goroutine and
// dispatches each file to a scan task once a permit is available.
type coordinator struct {
	foldedQuery string
	root        string
	permits     int64

	walker *scanner.Walker
	files  *filescan.Scanner
	logger *slog.Logger
	onSkip func(filescan.Result)
}

func (c *coordinator) run(ctx context.Context, s *Session) {
	c.logger.Info("search started",
		slog.String("query", s.Query),
		slog.String("root", c.root),
		slog.Int64("concurrency", c.permits))

	err := c.dispatch(ctx, s)
	cancelled := ctx.Err() != nil
	s.finish(err, cancelled)

	st := s.Stats()
	attrs := []any{
		slog.Int64("files_scanned", st.FilesScanned),
		slog.Int64("files_skipped", st.FilesSkipped),
		slog.Int64("occurrences", st.Occurrences),
		slog.Int64("max_in_flight", st.MaxInFlight),
		slog.Duration("duration", st.Duration),
		slog.Bool("cancelled", cancelled),
	}
	if err != nil {
		c.logger.Error("search failed", append(attrs, fterrors.LogAttrs(err)...)...)
		return
	}
	c.logger.Info("search finished", attrs...)
}

// dispatch walks the tree and fans the files out to at most c.permits
// concurrent scans. It returns only after every dispatched scan has
// returned. Cancellation is not an error.
func (c *coordinator) dispatch(ctx context.Context, s *Session) error {
	taskCtx, stopTasks := context.WithCancel(ctx)
	defer stopTasks()

	sem := semaphore.NewWeighted(c.permits)
	g, gctx := errgroup.WithContext(taskCtx)

	walkErr := c.walker.Walk(gctx, c.root, func(path string) error {
		if err := gctx.Err(); err != nil {
			return err
		}
		// Blocks the walk while all permits are held.
		if err := sem.Acquire(gctx, 1); err != nil {
			return err
		}
		g.Go(func() error {
			defer sem.Release(1)
			return c.scan(gctx, s, path)
		})
		return nil
	})
	if walkErr != nil && !isCancellation(walkErr) {
		stopTasks()
	}

	taskErr := g.Wait()
	switch {
	case taskErr != nil && !isCancellation(taskErr):
		return taskErr
	case walkErr != nil && !isCancellation(walkErr):
		return walkErr
	}
	return nil
}

// scan runs the file scanner for one file and forwards its occurrences.
func (c *coordinator) scan(ctx context.Context, s *Session, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.taskStarted()
	res, err := c.files.Scan(ctx, path, c.foldedQuery, func(line, offset int) error {
		return s.emit(ctx, Occurrence{File: path, Line: line, Offset: offset})
	})
	s.taskFinished(res, err)

	if err != nil {
		if !isCancellation(err) {
			c.logger.Warn("file scan failed", fterrors.LogAttrs(err)...)
		}
		return err
	}

	if res.Skipped {
		c.logger.Warn("skipped undecodable file", fterrors.LogAttrs(res.SkipReason)...)
		if c.onSkip != nil {
			c.onSkip(res)
		}
	}
	return nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
