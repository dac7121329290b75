// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache keeps the last observed copy of ideas, job status records
// and reports in a local SQLite database. Polls update it on every tick so
// `bizcheck cache list` and offline `report show` see the latest state.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/bizcheck/pkg/types"
)

const dbFile = "cache.db"

// timeFormat is fixed-width so updated_at sorts lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Kind is the type of a cached record.
type Kind string

const (
	KindIdea       Kind = "idea"
	KindCollection Kind = "collection"
	KindAnalysis   Kind = "analysis"
	KindReport     Kind = "report"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindIdea, KindCollection, KindAnalysis, KindReport}

// ParseKind validates s. The empty string means all kinds.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return "", nil
	}
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown cache kind %q: use one of %v", s, Kinds)
}

// Entry is one cached record.
type Entry struct {
	Kind      Kind            `json:"kind" yaml:"kind"`
	ID        string          `json:"id" yaml:"id"`
	Status    string          `json:"status" yaml:"status"`
	Payload   json.RawMessage `json:"payload" yaml:"-"`
	UpdatedAt time.Time       `json:"updated_at" yaml:"updated_at"`
}

// Decode unmarshals the payload into out.
func (e Entry) Decode(out any) error {
	if err := json.Unmarshal(e.Payload, out); err != nil {
		return fmt.Errorf("decoding cached %s %s: %w", e.Kind, e.ID, err)
	}
	return nil
}

// Store manages the cache database.
type Store struct {
	db  *sql.DB
	dir string
	now func() time.Time
}

// Open opens or creates dir/cache.db and its schema.
func Open(cfg types.CacheConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("cache directory is empty")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: cfg.Dir, now: time.Now}
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

// Path returns the database file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, dbFile)
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			kind TEXT NOT NULL,
			id TEXT NOT NULL,
			status TEXT,
			payload TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (kind, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_updated ON entries(updated_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

const upsertSQL = `INSERT INTO entries (kind, id, status, payload, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(kind, id) DO UPDATE SET
		status = excluded.status,
		payload = excluded.payload,
		updated_at = excluded.updated_at`

// Put stores v as JSON under (kind, id), replacing any previous copy.
func (s *Store) Put(ctx context.Context, kind Kind, id, status string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s %s: %w", kind, id, err)
	}
	_, err = s.db.ExecContext(ctx, upsertSQL, kind, id, status, string(data), s.now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("storing %s %s: %w", kind, id, err)
	}
	return nil
}

// PutIdea stores idea unless the cached copy already holds a later status.
// It reports whether the write was applied.
func (s *Store) PutIdea(ctx context.Context, idea *types.Idea) (bool, error) {
	data, err := json.Marshal(idea)
	if err != nil {
		return false, fmt.Errorf("encoding idea %s: %w", idea.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM entries WHERE kind = ? AND id = ?`, KindIdea, idea.ID,
	).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return false, fmt.Errorf("reading cached idea %s: %w", idea.ID, err)
	case !types.IdeaStatus(current).CanAdvanceTo(idea.Status):
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, upsertSQL, KindIdea, idea.ID, string(idea.Status),
		string(data), s.now().UTC().Format(timeFormat)); err != nil {
		return false, fmt.Errorf("storing idea %s: %w", idea.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing idea %s: %w", idea.ID, err)
	}
	return true, nil
}

// Get returns the entry for (kind, id). ok is false when nothing is cached.
func (s *Store) Get(ctx context.Context, kind Kind, id string) (e Entry, ok bool, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT kind, id, status, payload, updated_at FROM entries WHERE kind = ? AND id = ?`, kind, id)
	e, err = scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// List returns cached entries, newest first. An empty kind lists all kinds.
func (s *Store) List(ctx context.Context, kind Kind) ([]Entry, error) {
	query := `SELECT kind, id, status, payload, updated_at FROM entries`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY updated_at DESC, kind, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing cache: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteIdea removes an idea and its collection and analysis records.
// Reports are keyed by report id and stay cached.
func (s *Store) DeleteIdea(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, k := range []Kind{KindIdea, KindCollection, KindAnalysis} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE kind = ? AND id = ?`, k, id); err != nil {
			return fmt.Errorf("deleting %s %s: %w", k, id, err)
		}
	}
	return tx.Commit()
}

// Clear removes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries`)
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var e Entry
	var status sql.NullString
	var payload, updated string
	if err := sc.Scan(&e.Kind, &e.ID, &status, &payload, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("scanning cache entry: %w", err)
	}
	e.Status = status.String
	e.Payload = json.RawMessage(payload)
	if t, err := time.Parse(timeFormat, updated); err == nil {
		e.UpdatedAt = t
	}
	return e, nil
}
