// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for store operations.
var (
	ErrInvalidKey   = errors.New("cacheutil: key is invalid")
	ErrUnknownStore = errors.New("cacheutil: unknown store")
	ErrNoBucket     = errors.New("cacheutil: s3 store requires a bucket")
)

// Store is the key-value cache consulted around every fetch.
//
// Get never reports an expired entry; it returns ("", false, nil) on a miss.
// A ttl of zero means the entry never expires. Delete is idempotent.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration, tag string) error
	Delete(ctx context.Context, key string) error
}

// Maintainer is implemented by stores that support inspection and bulk
// invalidation.
type Maintainer interface {
	// Entries lists every live entry.
	Entries(ctx context.Context) ([]Entry, error)
	// DeleteTag removes every entry carrying tag and returns the count.
	DeleteTag(ctx context.Context, tag string) (int, error)
	// Purge removes entries created more than olderThan ago, plus anything
	// already expired. olderThan <= 0 only drops expired entries.
	Purge(ctx context.Context, olderThan time.Duration) (int, error)
}

// Entry is a single stored value along with its bookkeeping.
type Entry struct {
	Key     string    `json:"key"`
	Tag     string    `json:"tag,omitempty"`
	Value   string    `json:"value"`
	Created time.Time `json:"created"`
	// Expires is zero for entries that never expire.
	Expires time.Time `json:"expires,omitempty"`
}

// Expired reports whether the entry is past its expiry at now.
func (e Entry) Expired(now time.Time) bool {
	return !e.Expires.IsZero() && !now.Before(e.Expires)
}

func newEntry(key, value string, ttl time.Duration, tag string, now time.Time) Entry {
	e := Entry{
		Key:     key,
		Tag:     tag,
		Value:   value,
		Created: now.UTC(),
	}
	if ttl > 0 {
		e.Expires = now.Add(ttl).UTC()
	}
	return e
}

func marshalEntry(e Entry) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return b, nil
}

func unmarshalEntry(b []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return e, nil
}

// ValidateKey checks that key is usable as a cache key.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" || strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

// Config selects and configures a Store backend.
type Config struct {
	// Backend is one of "file" (default), "sqlite" or "s3".
	Backend string
	// Dir is the root directory for the file and sqlite backends. Empty means
	// Dir().
	Dir string

	Bucket   string
	Prefix   string
	Region   string
	Profile  string
	Endpoint string
}

// Open constructs the Store described by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	dir := cfg.Dir
	if dir == "" && cfg.Backend != "s3" {
		base, ok := Dir()
		if !ok {
			return nil, errors.New("cacheutil: unable to resolve a cache directory")
		}
		dir = base
	}

	switch strings.ToLower(cfg.Backend) {
	case "", "file":
		return NewFileStore(dir)
	case "sqlite":
		return NewSQLiteStore(dir)
	case "s3":
		return OpenS3Store(ctx, cfg)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Backend)
}
