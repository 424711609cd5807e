package summarize

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Summary is one summarized discussion thread.
type Summary struct {
	ThreadID string
	Title    string
	Text     string
	RunID    string
	Created  time.Time
}

// Store persists thread summaries in SQLite. Saves are idempotent per
// thread: re-summarizing a thread replaces its previous row.
type Store struct {
	db *sql.DB
}

const summaryTableSchema = `
CREATE TABLE IF NOT EXISTS summaries (
	thread_id  TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	summary    TEXT NOT NULL,
	run_id     TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);`

// OpenStore opens (and if needed initializes) the summary database.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open summary store %s: %w", path, err)
	}
	if _, err := db.Exec(summaryTableSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize summary store: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveBatch writes a batch of summaries in one transaction.
func (s *Store) SaveBatch(ctx context.Context, batch []Summary) error {
	if len(batch) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO summaries (thread_id, title, summary, run_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sum := range batch {
		if _, err := stmt.ExecContext(ctx, sum.ThreadID, sum.Title, sum.Text, sum.RunID, sum.Created); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SummarizedThreadIDs returns the IDs of threads that already have a summary.
func (s *Store) SummarizedThreadIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT thread_id FROM summaries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// isTransientDBError reports whether a save failed on a condition worth
// retrying, such as a locked or busy database file.
func isTransientDBError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database is busy") ||
		strings.Contains(msg, "disk i/o error")
}
