// Package store keeps the client's local state in a small SQLite database: the cookies of the
// backend session (so a login survives between CLI runs) and the last known identity.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// DBFileName is the database file inside the state directory.
const DBFileName = "state.sqlite"

type Store struct {
	Dir string

	db  *sql.DB
	log *zap.Logger
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open creates dir when missing and opens (or initializes) the state database in it.
func Open(ctx context.Context, dir string, opts ...Option) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("store: missing state dir")
	}
	s := &Store{Dir: filepath.Clean(dir), log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.Path())
	if err != nil {
		return nil, err
	}
	// One writer and many readers across concurrent CLI invocations.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.db = db
	return s, nil
}

// Path is the database file.
func (s *Store) Path() string { return filepath.Join(s.Dir, DBFileName) }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cookies (
			host TEXT NOT NULL,
			name TEXT NOT NULL,
			path TEXT NOT NULL,
			domain TEXT NOT NULL DEFAULT '',
			value TEXT NOT NULL,
			expires_unix INTEGER NOT NULL DEFAULT 0,
			secure INTEGER NOT NULL DEFAULT 0,
			http_only INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY(host, name, path)
		);`,
		`CREATE TABLE IF NOT EXISTS identity (
			base_url TEXT PRIMARY KEY,
			user_json TEXT NOT NULL,
			saved_at_unix INTEGER NOT NULL
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// Clear forgets every cookie and cached identity.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, st := range []string{`DELETE FROM cookies;`, `DELETE FROM identity;`} {
		if _, err := tx.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return tx.Commit()
}
