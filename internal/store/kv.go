package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// wrapErr maps a missing-table error onto ErrNotInitialized.
func wrapErr(err error, format string, args ...any) error {
	if err != nil && strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotInitialized)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Get returns the value stored under key. The bool is false when the key is
// absent.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapErr(err, "failed to get %s", key)
	}
	return value, true, nil
}

// Set stores a single key.
func (s *Store) Set(key, value string) error {
	return s.SetAll(map[string]string{key: value})
}

// SetAll writes every pair in one transaction so readers never observe a
// partial update.
func (s *Store) SetAll(values map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`)
	if err != nil {
		return wrapErr(err, "failed to prepare upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, key := range sortedKeys(values) {
		if _, err := stmt.Exec(key, values[key], now); err != nil {
			return wrapErr(err, "failed to set %s", key)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (s *Store) Delete(keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
			return wrapErr(err, "failed to delete %s", key)
		}
	}
	return nil
}

// Keys lists every stored key in ascending order.
func (s *Store) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, wrapErr(err, "failed to list keys")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Entries returns every stored pair with its last update time.
func (s *Store) Entries() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT key, value, updated_at FROM kv ORDER BY key`)
	if err != nil {
		return nil, wrapErr(err, "failed to list entries")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var updatedAt string
		if err := rows.Scan(&e.Key, &e.Value, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse updated_at for %s: %w", e.Key, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
