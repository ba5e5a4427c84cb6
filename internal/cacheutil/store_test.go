// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package cacheutil

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clock is a settable time source shared by a store under test.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type storeUnderTest interface {
	Store
	Maintainer
}

// runStoreContract exercises the behaviour every backend must share.
func runStoreContract(t *testing.T, open func(t *testing.T, c *clock) storeUnderTest) {
	ctx := context.Background()

	t.Run("miss on empty", func(t *testing.T) {
		s := open(t, &clock{t: time.Now()})
		v, ok, err := s.Get(ctx, "nope")
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, "", v)
	})

	t.Run("set then get", func(t *testing.T) {
		s := open(t, &clock{t: time.Now()})
		require.NoError(t, s.Set(ctx, "k", "OK", 0, "a"))
		v, ok, err := s.Get(ctx, "k")
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "OK", v)
	})

	t.Run("overwrite", func(t *testing.T) {
		s := open(t, &clock{t: time.Now()})
		require.NoError(t, s.Set(ctx, "k", "one", 0, ""))
		require.NoError(t, s.Set(ctx, "k", "two", 0, ""))
		v, _, _ := s.Get(ctx, "k")
		assert.Equal(t, "two", v)
	})

	t.Run("ttl expiry", func(t *testing.T) {
		c := &clock{t: time.Now()}
		s := open(t, c)
		require.NoError(t, s.Set(ctx, "short", "v", time.Minute, ""))
		require.NoError(t, s.Set(ctx, "forever", "v", 0, ""))

		c.advance(59 * time.Second)
		_, ok, _ := s.Get(ctx, "short")
		assert.True(t, ok, "entry should still be live")

		c.advance(2 * time.Second)
		_, ok, _ = s.Get(ctx, "short")
		assert.False(t, ok, "entry should have expired")

		c.advance(1000 * time.Hour)
		_, ok, _ = s.Get(ctx, "forever")
		assert.True(t, ok, "zero ttl never expires")
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := open(t, &clock{t: time.Now()})
		require.NoError(t, s.Set(ctx, "k", "v", 0, ""))
		assert.NoError(t, s.Delete(ctx, "k"))
		assert.NoError(t, s.Delete(ctx, "k"))
		_, ok, _ := s.Get(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("invalid key", func(t *testing.T) {
		s := open(t, &clock{t: time.Now()})
		assert.ErrorIs(t, s.Set(ctx, "  ", "v", 0, ""), ErrInvalidKey)
		assert.ErrorIs(t, s.Set(ctx, "a\nb", "v", 0, ""), ErrInvalidKey)
	})

	t.Run("entries and tags", func(t *testing.T) {
		c := &clock{t: time.Now()}
		s := open(t, c)
		require.NoError(t, s.Set(ctx, "k1", "v1", 0, "users"))
		require.NoError(t, s.Set(ctx, "k2", "v2", 0, "users"))
		require.NoError(t, s.Set(ctx, "k3", "v3", time.Minute, "orders"))

		entries, err := s.Entries(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"k1", "k2", "k3"}, keys(entries))

		n, err := s.DeleteTag(ctx, "users")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		entries, err = s.Entries(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"k3"}, keys(entries))
		assert.Equal(t, "orders", entries[0].Tag)
		assert.False(t, entries[0].Expires.IsZero())

		c.advance(2 * time.Minute)
		entries, err = s.Entries(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("purge drops expired", func(t *testing.T) {
		c := &clock{t: time.Now()}
		s := open(t, c)
		require.NoError(t, s.Set(ctx, "short", "v", time.Second, ""))
		require.NoError(t, s.Set(ctx, "forever", "v", 0, ""))
		c.advance(time.Minute)

		_, err := s.Purge(ctx, 0)
		require.NoError(t, err)

		_, ok, _ := s.Get(ctx, "forever")
		assert.True(t, ok)
		_, ok, _ = s.Get(ctx, "short")
		assert.False(t, ok)
	})
}

func keys(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Key)
	}
	sort.Strings(out)
	return out
}

func TestEntry_Expired(t *testing.T) {
	now := time.Now()
	assert.False(t, Entry{}.Expired(now))
	assert.False(t, Entry{Expires: now.Add(time.Second)}.Expired(now))
	assert.True(t, Entry{Expires: now}.Expired(now))
	assert.True(t, Entry{Expires: now.Add(-time.Second)}.Expired(now))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, Config{Dir: dir})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(ctx, Config{Backend: "FILE", Dir: dir})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(ctx, Config{Backend: "sqlite", Dir: dir})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	assert.NoError(t, s.(*SQLiteStore).Close())

	_, err = Open(ctx, Config{Backend: "s3"})
	assert.ErrorIs(t, err, ErrNoBucket)

	_, err = Open(ctx, Config{Backend: "redis", Dir: dir})
	assert.ErrorIs(t, err, ErrUnknownStore)
}

func TestEnabled(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", true},
		{"1", true},
		{"true", true},
		{"0", false},
		{"false", false},
	}
	for _, tt := range tests {
		t.Setenv("CACHEFETCH_CACHE", tt.value)
		assert.Equal(t, tt.want, Enabled(), "CACHEFETCH_CACHE=%q", tt.value)
	}
}

func TestDir(t *testing.T) {
	t.Setenv("CACHEFETCH_CACHE_DIR", "/tmp/somewhere")
	d, ok := Dir()
	assert.True(t, ok)
	assert.Equal(t, "/tmp/somewhere", d)
}

func TestEnsureBaseDir(t *testing.T) {
	base := t.TempDir() + "/nested/cache"
	t.Setenv("CACHEFETCH_CACHE_DIR", base)
	t.Setenv("CACHEFETCH_CACHE", "")

	p, ok, err := EnsureBaseDir()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.DirExists(t, p)

	t.Setenv("CACHEFETCH_CACHE", "0")
	_, ok, err = EnsureBaseDir()
	assert.NoError(t, err)
	assert.False(t, ok)
}
