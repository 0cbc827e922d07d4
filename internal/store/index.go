package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/valpere/TrailerScrapexter/internal/catalog"
)

// Index is the crawl ledger: one row per video, keyed by canonical
// code, recording where it came from and how the last attempt ended.
// A crawl consults it to skip videos already handled; tooling reads it
// to find failures worth retrying.
type Index struct {
	db *sql.DB
}

// IndexEntry is one recorded crawl outcome.
type IndexEntry struct {
	Code        string    `json:"code"`
	SourceURL   string    `json:"source_url"`
	Success     bool      `json:"success"`
	AttemptedAt time.Time `json:"attempted_at"`
}

const indexSchema = `
CREATE TABLE IF NOT EXISTS videos (
	code         TEXT PRIMARY KEY,
	source_url   TEXT NOT NULL,
	success      INTEGER NOT NULL,
	attempted_at TIMESTAMP NOT NULL
);
`

// OpenIndex opens (creating if needed) the sqlite crawl index at path.
func OpenIndex(path string) (*Index, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open crawl index: %w", err)
	}
	if _, err := db.Exec(indexSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize crawl index: %w", err)
	}
	return &Index{db: db}, nil
}

// Record upserts the outcome of a crawl attempt. The code is stored in
// canonical form so zero-pad and case variants collapse to one row.
func (ix *Index) Record(code, sourceURL string, success bool) error {
	_, err := ix.db.Exec(`
		INSERT INTO videos (code, source_url, success, attempted_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			source_url = excluded.source_url,
			success = excluded.success,
			attempted_at = excluded.attempted_at`,
		catalog.Canonical(code), sourceURL, success, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record crawl outcome: %w", err)
	}
	return nil
}

// Completed reports whether the code already has a successful attempt
// on record.
func (ix *Index) Completed(code string) (bool, error) {
	var success bool
	err := ix.db.QueryRow(`SELECT success FROM videos WHERE code = ?`,
		catalog.Canonical(code)).Scan(&success)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query crawl index: %w", err)
	}
	return success, nil
}

// Failures lists entries whose last attempt failed, oldest first.
func (ix *Index) Failures() ([]IndexEntry, error) {
	rows, err := ix.db.Query(`
		SELECT code, source_url, success, attempted_at
		FROM videos WHERE success = 0 ORDER BY attempted_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query crawl index: %w", err)
	}
	defer rows.Close()

	var out []IndexEntry
	for rows.Next() {
		var e IndexEntry
		if err := rows.Scan(&e.Code, &e.SourceURL, &e.Success, &e.AttemptedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}
