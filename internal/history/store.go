// Package history keeps a record of past searches in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // pure Go driver, registered as "sqlite"

	fterrors "github.com/Aman-CERP/findtext/internal/errors"
)

// Outcome is how a search ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// Entry is one recorded search.
type Entry struct {
	ID           int64         `json:"id"`
	StartedAt    time.Time     `json:"started_at"`
	Query        string        `json:"query"`
	Root         string        `json:"root"`
	Concurrency  int           `json:"concurrency"`
	Occurrences  int64         `json:"occurrences"`
	FilesScanned int64         `json:"files_scanned"`
	FilesSkipped int64         `json:"files_skipped"`
	Duration     time.Duration `json:"duration_ns"`
	Outcome      Outcome       `json:"outcome"`
	Error        string        `json:"error,omitempty"`
}

// Store is a search history database.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, storeError("create history directory", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storeError("open history database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// modernc.org/sqlite ignores most DSN parameters, so pragmas are
	// applied as statements.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, storeError("configure history database", err)
		}
	}

	s, err := newStore(db, path+".lock")
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database, creating the schema if needed.
func New(db *sql.DB, lockPath string) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return newStore(db, lockPath)
}

func newStore(db *sql.DB, lockPath string) (*Store, error) {
	if err := InitSchema(db); err != nil {
		return nil, err
	}
	return &Store{db: db, lock: flock.New(lockPath)}, nil
}

// InitSchema creates the history table if it does not exist.
func InitSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS searches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at INTEGER NOT NULL,
		query TEXT NOT NULL,
		root TEXT NOT NULL,
		concurrency INTEGER NOT NULL,
		occurrences INTEGER NOT NULL DEFAULT 0,
		files_scanned INTEGER NOT NULL DEFAULT 0,
		files_skipped INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_searches_started ON searches(started_at DESC);
	`
	if _, err := db.Exec(schema); err != nil {
		return storeError("create history schema", err)
	}
	return nil
}

// Record stores e and returns its id. StartedAt defaults to now.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO searches (started_at, query, root, concurrency, occurrences,
			files_scanned, files_skipped, duration_ms, outcome, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.StartedAt.UnixMilli(), e.Query, e.Root, e.Concurrency, e.Occurrences,
		e.FilesScanned, e.FilesSkipped, e.Duration.Milliseconds(), string(e.Outcome), e.Error)
	if err != nil {
		return 0, storeError("record search", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, query, root, concurrency, occurrences,
			files_scanned, files_skipped, duration_ms, outcome, error
		FROM searches
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, storeError("query history", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			startedMs  int64
			durationMs int64
			outcome    string
		)
		if err := rows.Scan(&e.ID, &startedMs, &e.Query, &e.Root, &e.Concurrency, &e.Occurrences,
			&e.FilesScanned, &e.FilesSkipped, &durationMs, &outcome, &e.Error); err != nil {
			return nil, storeError("scan history row", err)
		}
		e.StartedAt = time.UnixMilli(startedMs)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.Outcome = Outcome(outcome)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("query history", err)
	}
	return entries, nil
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM searches`)
	if err != nil {
		return 0, storeError("clear history", err)
	}
	return res.RowsAffected()
}

// Prune keeps the newest keep entries. Concurrent findtext processes prune
// one at a time; a caller that cannot take the lock returns without pruning.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	locked, err := s.lock.TryLock()
	if err != nil || !locked {
		slog.Debug("history prune skipped", slog.Bool("locked", locked))
		return 0, nil
	}
	defer func() { _ = s.lock.Unlock() }()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM searches WHERE id NOT IN (
			SELECT id FROM searches ORDER BY started_at DESC, id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, storeError("prune history", err)
	}
	return res.RowsAffected()
}

// Count returns the number of entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM searches`).Scan(&n); err != nil {
		return 0, storeError("count history", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func storeError(op string, err error) error {
	return fterrors.New(fterrors.ErrCodeHistoryStore, op, err)
}
