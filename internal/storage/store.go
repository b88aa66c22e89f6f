// Package storage persists session state (credentials, profile, projects and
// capped history lists) in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS projects (
	id              TEXT PRIMARY KEY,
	remote_id       INTEGER NOT NULL DEFAULT 0,
	name            TEXT NOT NULL,
	spreadsheet_url TEXT NOT NULL,
	sheet_id        TEXT NOT NULL,
	categories      TEXT NOT NULL,
	archived        INTEGER NOT NULL DEFAULT 0,
	created_at      TEXT NOT NULL
);
`

// Store is a SQLite-backed key-value and project store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure state database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}

	log.Debug().Str("path", path).Msg("Opened state database")
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the raw value of key.
func (s *Store) Get(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(context.Background(), "SELECT value FROM kv WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return v, true, nil
}

// Put upserts key.
func (s *Store) Put(key, value string) error {
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	if _, err := s.db.ExecContext(context.Background(), "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// GetJSON decodes the value of key into v. It reports false when the key is absent.
func (s *Store) GetJSON(key string, v any) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return true, nil
}

// PutJSON stores v encoded as JSON.
func (s *Store) PutJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	return s.Put(key, string(data))
}

// AppendCapped appends item to the JSON array stored at key, keeping only the
// newest limit elements.
func (s *Store) AppendCapped(key string, item any, limit int) error {
	var list []json.RawMessage
	if _, err := s.GetJSON(key, &list); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Resetting unreadable list")
		list = nil
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode item for %q: %w", key, err)
	}
	list = append(list, data)
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	return s.PutJSON(key, list)
}
