// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package cacheutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T, c *clock) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	s.now = c.now
	return s
}

func TestFileStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T, c *clock) storeUnderTest {
		return newTestFileStore(t, c)
	})
}

func TestFileStore_Layout(t *testing.T) {
	s := newTestFileStore(t, &clock{t: time.Now()})
	require.NoError(t, s.Set(context.Background(), "http://x/a", "OK", 0, "a"))

	p, ok := s.EntryPath("http://x/a")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(s.Root(), encodeKey("http://x/a")), p)

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// No temp files left behind.
	files, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestFileStore_CorruptEntry(t *testing.T) {
	s := newTestFileStore(t, &clock{t: time.Now()})
	p, _ := s.EntryPath("k")
	require.NoError(t, os.WriteFile(p, []byte("not json"), 0o600))

	_, ok, err := s.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)

	// Listing skips it rather than failing.
	entries, err := s.Entries(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStore_PurgeByAge(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t, &clock{t: time.Now()})
	require.NoError(t, s.Set(ctx, "old", "v", 0, ""))
	require.NoError(t, s.Set(ctx, "new", "v", 0, ""))

	p, _ := s.EntryPath("old")
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(p, past, past))

	n, err := s.Purge(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, _ := s.Get(ctx, "old")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "new")
	assert.True(t, ok)
}
