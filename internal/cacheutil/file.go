// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
)

// FileStore keeps one JSON envelope per key beneath a root directory. The file
// name is the MD5 of the clear-text key.
type FileStore struct {
	root string
	now  func() time.Time
}

// NewFileStore returns a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{root: dir, now: time.Now}, nil
}

// Root returns the directory the store writes to.
func (s *FileStore) Root() string { return s.root }

// EntryPath returns the absolute path where the entry for the clear-text key
// would live. It also returns true if a file currently exists at that path.
func (s *FileStore) EntryPath(key string) (string, bool) {
	p := filepath.Join(s.root, encodeKey(key))
	if _, err := os.Stat(p); err == nil {
		return p, true
	}
	return p, false
}

// Get reads the entry for key. Expired entries are removed and read as a miss.
func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	p, ok := s.EntryPath(key)
	if !ok {
		return "", false, nil
	}
	e, err := s.read(p)
	if err != nil {
		return "", false, err
	}
	if e.Expired(s.now()) {
		log.Debugf("cache entry expired: %s", p)
		_ = s.remove(p)
		return "", false, nil
	}
	return e.Value, true, nil
}

// Set writes value for key. The file is written beside its final name and
// renamed into place so readers never see a partial entry.
func (s *FileStore) Set(_ context.Context, key, value string, ttl time.Duration, tag string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	b, err := marshalEntry(newEntry(key, value, ttl, tag, s.now()))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(b); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Chmod(os.FileMode(0o600)); err != nil { //nolint:mnd
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}

	p, _ := s.EntryPath(key)
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Delete removes the entry for key, if any.
func (s *FileStore) Delete(_ context.Context, key string) error {
	p, ok := s.EntryPath(key)
	if !ok {
		return nil
	}
	return s.remove(p)
}

// Entries lists the live entries in the store.
func (s *FileStore) Entries(_ context.Context) ([]Entry, error) {
	var entries []Entry
	err := s.walk(func(p string, e Entry, _ fs.FileInfo) {
		entries = append(entries, e)
	})
	return entries, err
}

// DeleteTag removes every entry stored with tag.
func (s *FileStore) DeleteTag(_ context.Context, tag string) (int, error) {
	var n int
	err := s.walk(func(p string, e Entry, _ fs.FileInfo) {
		if e.Tag == tag && s.remove(p) == nil {
			n++
		}
	})
	return n, err
}

// Purge removes entries older than olderThan. Expired entries are always
// removed.
func (s *FileStore) Purge(_ context.Context, olderThan time.Duration) (int, error) {
	var n int
	now := s.now()
	err := filepath.Walk(s.root, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !isEntryName(filepath.Base(p)) {
			return nil
		}
		old := olderThan > 0 && now.Sub(info.ModTime()) > olderThan
		if !old {
			e, rerr := s.read(p)
			old = rerr == nil && e.Expired(now)
		}
		if old {
			if rerr := s.remove(p); rerr == nil {
				log.Debugf("removed cache file %s", p)
				n++
			} else {
				log.WithError(rerr).Warnf("failed to remove cache file %s", p)
			}
		}
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("failed to purge cache: %w", err)
	}
	return n, nil
}

// walk visits every readable, unexpired entry. Expired entries are removed on
// the way past.
func (s *FileStore) walk(fn func(string, Entry, fs.FileInfo)) error {
	now := s.now()
	err := filepath.Walk(s.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.IsDir() || !isEntryName(filepath.Base(p)) {
			return nil
		}
		e, rerr := s.read(p)
		if rerr != nil {
			log.WithError(rerr).Debugf("skipping unreadable cache file %s", p)
			return nil
		}
		if e.Expired(now) {
			_ = s.remove(p)
			return nil
		}
		fn(p, e, info)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk cache: %w", err)
	}
	return nil
}

func (s *FileStore) read(p string) (Entry, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read cache: %w", err)
	}
	return unmarshalEntry(b)
}

func (s *FileStore) remove(p string) error {
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}

// isEntryName reports whether name looks like an encoded key. Temp files and
// anything else sharing the directory are left alone.
func isEntryName(name string) bool {
	if len(name) != 32 { //nolint:mnd
		return false
	}
	for _, r := range name {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

var (
	_ Store      = (*FileStore)(nil)
	_ Maintainer = (*FileStore)(nil)
)
