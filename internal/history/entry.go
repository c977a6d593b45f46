package history

import (
	"context"
	"errors"
	"time"

	fterrors "github.com/Aman-CERP/findtext/internal/errors"
	"github.com/Aman-CERP/findtext/internal/search"
)

// FromSession builds an entry for a session that has finished.
func FromSession(s *search.Session) Entry {
	stats := s.Stats()
	e := Entry{
		StartedAt:    s.StartedAt(),
		Query:        s.Query,
		Root:         s.Root,
		Concurrency:  s.Concurrency,
		Occurrences:  stats.Occurrences,
		FilesScanned: stats.FilesScanned,
		FilesSkipped: stats.FilesSkipped,
		Duration:     stats.Duration,
		Outcome:      OutcomeCompleted,
	}
	switch err := s.Err(); {
	case s.Cancelled():
		e.Outcome = OutcomeCancelled
	case err != nil:
		e.Outcome = OutcomeFailed
		e.Error = errorText(err)
	}
	return e
}

// Failed builds an entry for a search that could not start.
func Failed(query, root string, err error) Entry {
	return Entry{
		StartedAt: time.Now(),
		Query:     query,
		Root:      root,
		Outcome:   OutcomeFailed,
		Error:     errorText(err),
	}
}

func errorText(err error) string {
	if errors.Is(err, context.Canceled) {
		return ""
	}
	if e, ok := fterrors.As(err); ok {
		return e.Code + ": " + e.Message
	}
	return err.Error()
}
