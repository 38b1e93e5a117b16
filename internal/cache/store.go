// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists fetched HTTP responses in a SQLite database so
// repeated runs against the same pages, PDFs and API endpoints skip the
// network.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// tsLayout sorts lexicographically in time order.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// DefaultTTL bounds how long an entry is served when Open gets a zero TTL.
const DefaultTTL = 24 * time.Hour

// Entry is one cached response.
type Entry struct {
	URL         string
	FinalURL    string
	ContentType string
	Body        []byte
	FetchedAt   time.Time
}

// Store manages the response cache database.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens or creates the cache database at path and creates the schema
// if it does not exist.
func Open(path string, ttl time.Duration) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{db: db, ttl: ttl, now: time.Now}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS responses (
			url TEXT PRIMARY KEY,
			final_url TEXT NOT NULL,
			content_type TEXT,
			body BLOB NOT NULL,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_fetched_at ON responses(fetched_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get returns the entry for url when one exists and has not expired.
func (s *Store) Get(ctx context.Context, url string) (*Entry, bool, error) {
	var (
		e         Entry
		fetchedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT url, final_url, content_type, body, fetched_at FROM responses WHERE url = ?`, url,
	).Scan(&e.URL, &e.FinalURL, &e.ContentType, &e.Body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry %s: %w", url, err)
	}

	e.FetchedAt, err = time.Parse(tsLayout, fetchedAt)
	if err != nil {
		return nil, false, fmt.Errorf("parsing cache timestamp for %s: %w", url, err)
	}
	if s.now().Sub(e.FetchedAt) > s.ttl {
		return nil, false, nil
	}
	return &e, true, nil
}

// Put stores or replaces the entry for e.URL. A zero FetchedAt is set to
// the current time.
func (s *Store) Put(ctx context.Context, e Entry) error {
	if e.FetchedAt.IsZero() {
		e.FetchedAt = s.now()
	}
	if e.FinalURL == "" {
		e.FinalURL = e.URL
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO responses (url, final_url, content_type, body, fetched_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.URL, e.FinalURL, e.ContentType, e.Body, e.FetchedAt.UTC().Format(tsLayout),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry %s: %w", e.URL, err)
	}
	return nil
}

// Purge deletes expired entries and returns how many were removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl).UTC().Format(tsLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return res.RowsAffected()
}

// Len returns the number of stored entries, expired or not.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM responses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}
