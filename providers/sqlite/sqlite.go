// Package sqlite supplies keys from a local SQLite database, for
// deployments that keep key material in an application database rather
// than an external secrets service.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/confkit/securestore"
)

const schema = `
	CREATE TABLE IF NOT EXISTS key_items (
		name       TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
`

// Store reads and writes key items in a SQLite table.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema
// exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open key database at %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("key database connection test failed for %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create key database schema in %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing database handle. The schema is created
// if missing.
func NewWithDB(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must not be nil")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create key database schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, item string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM key_items WHERE name = ?`, item).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: database item %q", securestore.ErrKeyNotFound, item)
	}
	if err != nil {
		return "", fmt.Errorf("key database read failed for %q: %w", item, err)
	}
	if value == "" {
		return "", fmt.Errorf("%w: database item %q is empty", securestore.ErrKeyNotFound, item)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, item string, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO key_items (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, item, value)
	if err != nil {
		return fmt.Errorf("key database write failed for %q: %w", item, err)
	}
	return nil
}

var _ securestore.KeyStore = (*Store)(nil)
