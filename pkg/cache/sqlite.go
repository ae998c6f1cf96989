package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/plexutils/youtube-hydrator/pkg/metadata"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const backendSQLite = "sqlite"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
	key       TEXT PRIMARY KEY,
	record    TEXT NOT NULL,
	stored_at INTEGER NOT NULL,
	expires   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_expires ON entries(expires);
`

// SQLite is a Store backed by a SQLite database file. It gives the CLI a
// cache that survives across runs without requiring a server.
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (or creates) a SQLite-backed store at the given path.
// Parent directories are created as needed.
func NewSQLite(dbPath string) (*SQLite, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite cache path cannot be empty")
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	// WAL mode so a metrics scrape or second reader never blocks a write.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache schema: %w", err)
	}

	return &SQLite{db: db, path: dbPath}, nil
}

// Get retrieves an entry by key.
// Returns ErrCacheMiss if the key doesn't exist or the entry is expired.
func (s *SQLite) Get(ctx context.Context, key Key) (*Entry, error) {
	var (
		recordJSON string
		storedAt   int64
		expires    int64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT record, stored_at, expires FROM entries WHERE key = ?`,
		key.String(),
	).Scan(&recordJSON, &storedAt, &expires)
	if err == sql.ErrNoRows {
		CacheMisses.WithLabelValues(backendSQLite).Inc()
		return nil, ErrCacheMiss
	}
	if err != nil {
		CacheErrors.WithLabelValues(backendSQLite, "get").Inc()
		return nil, fmt.Errorf("sqlite get: %w", err)
	}

	entry := &Entry{
		StoredAt: time.Unix(0, storedAt).UTC(),
		Expires:  time.Unix(0, expires).UTC(),
	}
	if entry.IsExpired() {
		_ = s.Delete(ctx, key)
		CacheExpired.WithLabelValues(backendSQLite).Inc()
		return nil, ErrCacheMiss
	}

	var rec metadata.Record
	if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
		CacheErrors.WithLabelValues(backendSQLite, "get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	entry.Record = rec

	CacheHits.WithLabelValues(backendSQLite).Inc()
	return entry, nil
}

// Set stores an entry, replacing any previous entry for the key.
func (s *SQLite) Set(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	if !key.Valid() {
		return ErrInvalidKey
	}
	if entry.TTL() <= 0 {
		return nil
	}

	recordJSON, err := json.Marshal(entry.Record)
	if err != nil {
		CacheErrors.WithLabelValues(backendSQLite, "set").Inc()
		return fmt.Errorf("marshal cache record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entries (key, record, stored_at, expires)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			record = excluded.record,
			stored_at = excluded.stored_at,
			expires = excluded.expires
	`, key.String(), string(recordJSON), entry.StoredAt.UnixNano(), entry.Expires.UnixNano())
	if err != nil {
		CacheErrors.WithLabelValues(backendSQLite, "set").Inc()
		return fmt.Errorf("sqlite set: %w", err)
	}
	return nil
}

// Delete removes an entry.
func (s *SQLite) Delete(ctx context.Context, key Key) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM entries WHERE key = ?`, key.String(),
	); err != nil {
		CacheErrors.WithLabelValues(backendSQLite, "delete").Inc()
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

// Len reports the number of live entries, sweeping out expired ones.
func (s *SQLite) Len(ctx context.Context) (int, error) {
	now := time.Now().UnixNano()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM entries WHERE expires <= ?`, now,
	); err != nil {
		CacheErrors.WithLabelValues(backendSQLite, "len").Inc()
		return 0, fmt.Errorf("sqlite sweep: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries`,
	).Scan(&count); err != nil {
		CacheErrors.WithLabelValues(backendSQLite, "len").Inc()
		return 0, fmt.Errorf("sqlite count: %w", err)
	}
	return count, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
