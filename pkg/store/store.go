// Package store is the single access layer for the messenger's SQLite
// database and the bridge-owned tables living alongside it (watermark,
// change-event outbox fed by triggers). The database is not safe for
// unordered concurrent writes, so the pool is pinned to one connection and
// each subsystem owns its rows: the poller owns the watermark, the drain
// owns the change-event buffer.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by lookups that matched no row.
var ErrNotFound = errors.New("store: not found")

// Store wraps the shared database handle.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the messenger database at path and verifies connectivity.
// Bridge tables and capture triggers are not installed here; call
// InstallBridgeSchema once at startup.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One logical connection: the store is shared by several periodic tasks
	// and SQLite does not tolerate unordered concurrent writers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &Store{db: db, path: cleanPath}, nil
}

// Close closes the underlying database. Nil-safe so callers can defer it in
// all startup paths.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Ready reports whether the handle answers a ping.
func (s *Store) Ready() bool {
	if s == nil || s.db == nil {
		return false
	}
	return s.db.Ping() == nil
}

// Checkpoint forces a WAL checkpoint; used by the maintenance runner.
func (s *Store) Checkpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	return nil
}
