package search

import (
	"context"
	"iter"
	"sync/atomic"
	"time"

	"github.com/Aman-CERP/findtext/internal/filescan"
)

// Stats are live counters for a session.
type Stats struct {
	FilesScanned int64
	FilesSkipped int64
	Occurrences  int64

	// MaxInFlight is the highest number of file scans that ran at once.
	MaxInFlight int64

	Duration time.Duration
}

// Session is one running search. Occurrences are delivered on Results,
// which is closed once the walk has ended and every dispatched file scan
// has returned.
type Session struct {
	Query       string
	Root        string
	Concurrency int

	results chan Occurrence
	cancel  context.CancelFunc
	done    chan struct{}
	started time.Time

	// Written before done is closed.
	err       error
	cancelled bool
	duration  time.Duration

	filesScanned atomic.Int64
	filesSkipped atomic.Int64
	occurrences  atomic.Int64
	inFlight     atomic.Int64
	maxInFlight  atomic.Int64
}

func newSession(query, root string, concurrency, buffer int, cancel context.CancelFunc) *Session {
	return &Session{
		Query:       query,
		Root:        root,
		Concurrency: concurrency,
		results:     make(chan Occurrence, buffer),
		cancel:      cancel,
		done:        make(chan struct{}),
		started:     time.Now(),
	}
}

// Results returns the stream of occurrences. Occurrences of one file
// arrive in line-then-offset order; files interleave freely.
func (s *Session) Results() <-chan Occurrence {
	return s.results
}

// All ranges over the occurrences. Breaking out of the loop cancels the
// session.
func (s *Session) All() iter.Seq[Occurrence] {
	return func(yield func(Occurrence) bool) {
		for o := range s.results {
			if !yield(o) {
				s.Cancel()
				return
			}
		}
	}
}

// Cancel stops the search. It may be called any number of times, from any
// goroutine, before or after the search has finished.
func (s *Session) Cancel() {
	s.cancel()
}

// StartedAt returns when the search began.
func (s *Session) StartedAt() time.Time {
	return s.started
}

// Done is closed when the search has finished.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the search has finished and returns its error.
func (s *Session) Wait() error {
	<-s.done
	return s.err
}

// Err returns the error that ended the search, or nil while it is running,
// after it completed, or after it was cancelled.
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Cancelled reports whether the search ended because it was cancelled.
func (s *Session) Cancelled() bool {
	select {
	case <-s.done:
		return s.cancelled
	default:
		return false
	}
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	st := Stats{
		FilesScanned: s.filesScanned.Load(),
		FilesSkipped: s.filesSkipped.Load(),
		Occurrences:  s.occurrences.Load(),
		MaxInFlight:  s.maxInFlight.Load(),
	}
	select {
	case <-s.done:
		st.Duration = s.duration
	default:
		st.Duration = time.Since(s.started)
	}
	return st
}

// emit delivers one occurrence, blocking while the buffer is full.
// Nothing is delivered once ctx is done.
func (s *Session) emit(ctx context.Context, o Occurrence) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case s.results <- o:
		s.occurrences.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) taskStarted() {
	n := s.inFlight.Add(1)
	for {
		peak := s.maxInFlight.Load()
		if n <= peak || s.maxInFlight.CompareAndSwap(peak, n) {
			return
		}
	}
}

func (s *Session) taskFinished(res filescan.Result, err error) {
	s.inFlight.Add(-1)
	switch {
	case err != nil:
	case res.Skipped:
		s.filesSkipped.Add(1)
	default:
		s.filesScanned.Add(1)
	}
}

// finish records the outcome and closes the stream. done is closed before
// results so a consumer that sees the stream end can read Err.
func (s *Session) finish(err error, cancelled bool) {
	s.err = err
	s.cancelled = cancelled
	s.duration = time.Since(s.started)
	close(s.done)
	close(s.results)
	s.cancel()
}
