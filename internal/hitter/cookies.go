// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package hitter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// storedCookie is the on-disk form of one cookie.
type storedCookie struct {
	URL      string    `json:"url"`
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain,omitempty"`
	Path     string    `json:"path,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HTTPOnly bool      `json:"http_only,omitempty"`
}

func (c storedCookie) id() string {
	u, _ := url.Parse(c.URL)
	host := ""
	if u != nil {
		host = u.Hostname()
	}
	return host + "|" + c.Domain + "|" + c.Path + "|" + c.Name
}

func (c storedCookie) cookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
	}
}

// FileJar is an http.CookieJar persisted as JSON at a file path. Session
// cookies are persisted too, so a jar survives between invocations.
type FileJar struct {
	path string
	jar  *cookiejar.Jar

	mu      sync.Mutex
	cookies map[string]storedCookie
	dirty   bool
}

// LoadFileJar reads the jar at path. A missing file yields an empty jar that
// will be created on the first Save.
func LoadFileJar(path string) (*FileJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	j := &FileJar{path: path, jar: jar, cookies: map[string]storedCookie{}}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return j, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}
	if len(b) == 0 {
		return j, nil
	}

	var stored []storedCookie
	if err := json.Unmarshal(b, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse cookie file %s: %w", path, err)
	}

	now := time.Now()
	for _, c := range stored {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		u, err := url.Parse(c.URL)
		if err != nil {
			continue
		}
		j.jar.SetCookies(u, []*http.Cookie{c.cookie()})
		j.cookies[c.id()] = c
	}
	return j, nil
}

// Path returns the file the jar is persisted to.
func (j *FileJar) Path() string { return j.path }

// SetCookies implements http.CookieJar.
func (j *FileJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()

	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}).String()
	now := time.Now()
	for _, c := range cookies {
		sc := storedCookie{
			URL:      origin,
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
		switch {
		case c.MaxAge > 0:
			sc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		case !c.Expires.IsZero():
			sc.Expires = c.Expires
		}

		if c.MaxAge < 0 || (!sc.Expires.IsZero() && sc.Expires.Before(now)) {
			delete(j.cookies, sc.id())
		} else {
			j.cookies[sc.id()] = sc
		}
		j.dirty = true
	}
}

// Cookies implements http.CookieJar.
func (j *FileJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// Save writes the jar to its file if it changed since the last Save.
func (j *FileJar) Save() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.dirty {
		return nil
	}

	stored := make([]storedCookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		stored = append(stored, c)
	}
	b, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}

	if dir := filepath.Dir(j.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
			return fmt.Errorf("failed to create cookie directory: %w", err)
		}
	}
	if err := os.WriteFile(j.path, b, os.FileMode(0o600)); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write cookie file: %w", err)
	}
	j.dirty = false
	return nil
}

var _ http.CookieJar = (*FileJar)(nil)
