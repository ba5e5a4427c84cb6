// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite" // registers the "sqlite" driver
)

// SQLiteFile is the database file name used inside the cache directory.
const SQLiteFile = "cache.db"

// SQLiteStore keeps entries in a single sqlite database.
type SQLiteStore struct {
	db         *sql.DB
	writeMutex *sync.Mutex
	now        func() time.Time
}

// NewSQLiteStore opens (creating if needed) dir/cache.db.
func NewSQLiteStore(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, SQLiteFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	for _, stmt := range []string{
		"CREATE TABLE IF NOT EXISTS cache (key TEXT PRIMARY KEY, tag TEXT, created INTEGER, expires INTEGER, value BLOB)",
		"CREATE INDEX IF NOT EXISTS tag_idx ON cache (tag)",
		"CREATE INDEX IF NOT EXISTS expires_idx ON cache (expires)",
		"PRAGMA journal_mode=WAL",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close() //nolint:errcheck
			return nil, fmt.Errorf("failed to prepare cache database: %w", err)
		}
	}

	return &SQLiteStore{db: db, writeMutex: &sync.Mutex{}, now: time.Now}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Get returns the live value for key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var expires int64
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT expires, value FROM cache WHERE key = ?", key).Scan(&expires, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cache: %w", err)
	}
	if expires != 0 && !s.now().Before(time.Unix(0, expires)) {
		_ = s.Delete(ctx, key)
		return "", false, nil
	}
	return string(value), true, nil
}

// Set stores value under key. expires 0 in the table means never.
func (s *SQLiteStore) Set(ctx context.Context, key, value string, ttl time.Duration, tag string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	e := newEntry(key, value, ttl, tag, s.now())

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cache (key, tag, created, expires, value) VALUES (?, ?, ?, ?, ?)",
		e.Key, e.Tag, e.Created.UnixNano(), unixNano(e.Expires), []byte(e.Value))
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Delete removes key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	if _, err := s.db.ExecContext(ctx, "DELETE FROM cache WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

// Entries lists the live entries ordered by key.
func (s *SQLiteStore) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, tag, created, expires, value FROM cache WHERE expires = 0 OR expires > ? ORDER BY key",
		s.now().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to list cache: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created, expires int64
		var value []byte
		if err := rows.Scan(&e.Key, &e.Tag, &created, &expires, &value); err != nil {
			return entries, fmt.Errorf("failed to list cache: %w", err)
		}
		e.Value = string(value)
		e.Created = time.Unix(0, created).UTC()
		if expires != 0 {
			e.Expires = time.Unix(0, expires).UTC()
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteTag removes every entry stored with tag.
func (s *SQLiteStore) DeleteTag(ctx context.Context, tag string) (int, error) {
	return s.exec(ctx, "DELETE FROM cache WHERE tag = ?", tag)
}

// Purge removes expired entries and those created more than olderThan ago.
func (s *SQLiteStore) Purge(ctx context.Context, olderThan time.Duration) (int, error) {
	now := s.now()
	if olderThan <= 0 {
		return s.exec(ctx, "DELETE FROM cache WHERE expires != 0 AND expires <= ?", now.UnixNano())
	}
	return s.exec(ctx, "DELETE FROM cache WHERE (expires != 0 AND expires <= ?) OR created < ?",
		now.UnixNano(), now.Add(-olderThan).UnixNano())
}

func (s *SQLiteStore) exec(ctx context.Context, query string, args ...any) (int, error) {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to update cache: %w", err)
	}
	return int(n), nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

var (
	_ Store      = (*SQLiteStore)(nil)
	_ Maintainer = (*SQLiteStore)(nil)
)
