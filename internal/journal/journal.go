// Package journal records applied transforms in a local sqlite database so
// users can audit what imgstack changed and when.
package journal

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Entry is one applied transform.
type Entry struct {
	ID        string
	File      string
	Op        string
	SearchKey string
	BeforeSHA string
	AfterSHA  string
	AppliedAt time.Time
}

// Store is a sqlite-backed journal. Use ":memory:" for an ephemeral journal.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (and if needed initializes) the journal database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transforms (
		id TEXT PRIMARY KEY,
		file TEXT NOT NULL,
		op TEXT NOT NULL,
		search_key TEXT NOT NULL,
		before_sha TEXT NOT NULL,
		after_sha TEXT NOT NULL,
		applied_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transforms_file ON transforms(file);
	CREATE INDEX IF NOT EXISTS idx_transforms_applied_at ON transforms(applied_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts an entry, assigning an ID and timestamp when absent.
func (s *Store) Record(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.AppliedAt.IsZero() {
		e.AppliedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO transforms (id, file, op, search_key, before_sha, after_sha, applied_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.File, e.Op, e.SearchKey, e.BeforeSHA, e.AfterSHA, e.AppliedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert transform: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, file, op, search_key, before_sha, after_sha, applied_at FROM transforms ORDER BY applied_at DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query transforms: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ID, &e.File, &e.Op, &e.SearchKey, &e.BeforeSHA, &e.AfterSHA, &ts); err != nil {
			return nil, fmt.Errorf("scan transform: %w", err)
		}
		e.AppliedAt = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SHA returns the hex sha256 of a document snapshot, the form stored in
// before_sha/after_sha.
func SHA(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
