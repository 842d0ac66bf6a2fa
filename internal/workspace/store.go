package workspace

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a blob or record does not exist.
var ErrNotFound = errors.New("not found")

// Store is a SQLite-backed blob store. Values are JSON documents keyed by a
// domain plus a name within that domain, which keeps unrelated subsystems
// from stepping on each other's keys.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS blobs (
	domain     TEXT NOT NULL,
	name       TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (domain, name)
);
`

// NewStore opens (or creates) the database at path. WAL mode is enabled so
// concurrent readers do not block the writer.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = filepath.Join(".", "data", "amber.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Set marshals value to JSON and upserts it under domain/name.
func (s *Store) Set(ctx context.Context, domain, name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding blob %s/%s: %w", domain, name, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO blobs (domain, name, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (domain, name) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		domain, name, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("storing blob %s/%s: %w", domain, name, err)
	}
	return nil
}

// Get unmarshals the blob stored under domain/name into out. Missing blobs
// return ErrNotFound.
func (s *Store) Get(ctx context.Context, domain, name string, out any) error {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM blobs WHERE domain = ? AND name = ?`,
		domain, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("loading blob %s/%s: %w", domain, name, err)
	}

	if err := json.Unmarshal([]byte(value), out); err != nil {
		return fmt.Errorf("decoding blob %s/%s: %w", domain, name, err)
	}
	return nil
}

// List returns the names of all blobs in a domain, in insertion order.
func (s *Store) List(ctx context.Context, domain string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM blobs WHERE domain = ? ORDER BY rowid`, domain)
	if err != nil {
		return nil, fmt.Errorf("listing blobs in %s: %w", domain, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (s *Store) Delete(ctx context.Context, domain, name string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM blobs WHERE domain = ? AND name = ?`, domain, name)
	return err
}
