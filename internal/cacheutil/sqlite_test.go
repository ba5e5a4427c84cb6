// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package cacheutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T, c *clock) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	s.now = c.now
	return s
}

func TestSQLiteStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T, c *clock) storeUnderTest {
		return newTestSQLiteStore(t, c)
	})
}

func TestSQLiteStore_Persists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", "persisted", 0, ""))
	require.NoError(t, s.Close())
	assert.FileExists(t, filepath.Join(dir, SQLiteFile))

	s, err = NewSQLiteStore(dir)
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", v)
}

func TestSQLiteStore_PurgeByAge(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Now()}
	s := newTestSQLiteStore(t, c)

	require.NoError(t, s.Set(ctx, "old", "v", 0, ""))
	c.advance(48 * time.Hour)
	require.NoError(t, s.Set(ctx, "new", "v", 0, ""))

	n, err := s.Purge(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, _ := s.Get(ctx, "old")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "new")
	assert.True(t, ok)
}
