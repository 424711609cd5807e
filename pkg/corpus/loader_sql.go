package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLLoader reads fragments from a SQLite database written by the data
// pipeline. The expected table:
//
//	CREATE TABLE fragments (
//	    url          TEXT PRIMARY KEY,
//	    title        TEXT,
//	    content      TEXT NOT NULL,
//	    source_type  TEXT NOT NULL,
//	    last_updated TIMESTAMP,
//	    metadata     TEXT  -- JSON object, optional
//	);
type SQLLoader struct {
	path string
}

// NewSQLLoader creates a loader for a SQLite corpus database.
func NewSQLLoader(path string) *SQLLoader {
	return &SQLLoader{path: path}
}

// Load reads all fragments from the database.
func (l *SQLLoader) Load(ctx context.Context) ([]*Fragment, error) {
	db, err := sql.Open("sqlite3", l.path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus database %s: %w", l.path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT url, COALESCE(title, ''), content, source_type, last_updated, COALESCE(metadata, '')
		 FROM fragments ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fragments: %w", err)
	}
	defer rows.Close()

	var fragments []*Fragment
	for rows.Next() {
		var fragment Fragment
		var lastUpdated sql.NullTime
		var metadataJSON string
		if err := rows.Scan(&fragment.URL, &fragment.Title, &fragment.Content,
			&fragment.SourceType, &lastUpdated, &metadataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan fragment row: %w", err)
		}
		if lastUpdated.Valid {
			fragment.LastUpdated = lastUpdated.Time
		} else {
			fragment.LastUpdated = time.Time{}
		}
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &fragment.Metadata); err != nil {
				return nil, fmt.Errorf("invalid metadata for fragment %s: %w", fragment.URL, err)
			}
		}
		fragments = append(fragments, &fragment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fragments: %w", err)
	}

	return fragments, nil
}
