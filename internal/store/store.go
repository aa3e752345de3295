// Package store persists colormap and colorbar dictionaries registered at
// runtime using SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cbarreg/server/internal/settings"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

// Kind tells colormap entries from colorbar entries.
type Kind string

const (
	KindColormap Kind = "colormap"
	KindColorbar Kind = "colorbar"
)

// Entry is one stored dictionary.
type Entry struct {
	Kind      Kind
	Name      string
	Dict      map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store keeps entries in a SQLite database.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for sqlite: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS entries (
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		yaml TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (kind, name)
	);
	`)
	return err
}

// Put inserts or replaces the dictionary stored as (kind, name).
func (s *Store) Put(kind Kind, name string, d map[string]any) error {
	payload, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal %s '%s': %w", kind, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.Exec(`
		INSERT INTO entries (kind, name, yaml, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(kind, name) DO UPDATE SET yaml = excluded.yaml, updated_at = excluded.updated_at
	`, string(kind), name, string(payload), now, now)
	return err
}

// Get returns the entry stored as (kind, name), or nil when there is none.
func (s *Store) Get(kind Kind, name string) (*Entry, error) {
	row := s.db.QueryRow(`
		SELECT kind, name, yaml, created_at, updated_at
		FROM entries WHERE kind = ? AND name = ?
	`, string(kind), name)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// Delete removes (kind, name). It reports whether an entry was removed.
func (s *Store) Delete(kind Kind, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM entries WHERE kind = ? AND name = ?", string(kind), name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// List returns every entry of kind ordered by name.
func (s *Store) List(kind Kind) ([]*Entry, error) {
	rows, err := s.db.Query(`
		SELECT kind, name, yaml, created_at, updated_at
		FROM entries WHERE kind = ?
		ORDER BY name
	`, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e                    Entry
		kind, payload        string
		createdAt, updatedAt string
	)
	if err := row.Scan(&kind, &e.Name, &payload, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.Kind = Kind(kind)
	if err := yaml.Unmarshal([]byte(payload), &e.Dict); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s '%s': %w", kind, e.Name, err)
	}
	e.Dict = settings.Clone(e.Dict)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &e, nil
}
