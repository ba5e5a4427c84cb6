// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"crypto/md5"
	"encoding/hex"
	"math"
	"strings"
	"time"
)

// Policy is the resolved set of caching directives for one fetch.
type Policy struct {
	// Key identifies the cache entry. Defaults to HashKey(resource).
	Key string
	// ExpireSeconds is the entry lifetime. 0 means the entry never expires.
	ExpireSeconds int
	// Enabled is false for anything other than a read.
	Enabled bool
	// Reset drops an existing entry before the lookup.
	Reset bool
	// Signature, when set, must appear (case-insensitive) in a fetched body
	// before that body may be cached.
	Signature string
	// BeforeStore optionally transforms the body prior to storage.
	BeforeStore Hook
}

// Defaults returns the policy used when the caller supplies no directive.
func Defaults() Policy {
	return Policy{
		ExpireSeconds: 0,
		Enabled:       true,
		Reset:         false,
		Signature:     "",
	}
}

// Resolve builds the Policy for action on resource. cache is the caller's
// directive (nil for defaults) and extra holds any top-level caching keys the
// caller passed alongside it; those win over the directive.
func Resolve(action, resource string, cache Directive, extra map[string]any) Policy {
	p := Defaults()

	if cache != nil {
		cache.apply(&p)
	}

	if o, ok := parseOverride(extra); ok {
		o.apply(&p)
	}

	if !IsRead(action) {
		p.Enabled = false
	}

	if p.Key == "" {
		p.Key = HashKey(resource)
	}

	if p.ExpireSeconds < 0 {
		p.ExpireSeconds = 0
	}

	return p
}

// IsRead reports whether action is a GET, ignoring case and surrounding
// whitespace. Only reads may be cached.
func IsRead(action string) bool {
	return strings.ToLower(strings.TrimSpace(action)) == "get"
}

// maxExpireSeconds is the largest lifetime a time.Duration can hold.
const maxExpireSeconds = math.MaxInt64 / int64(time.Second)

// TTL returns the entry lifetime as a duration. Zero means no expiry. Lifetimes
// past what a time.Duration can hold saturate at the maximum duration.
func (p Policy) TTL() time.Duration {
	if int64(p.ExpireSeconds) > maxExpireSeconds {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(p.ExpireSeconds) * time.Second
}

// HasSignature reports whether body contains the policy signature, ignoring
// case. An empty signature matches everything.
func (p Policy) HasSignature(body string) bool {
	if p.Signature == "" {
		return true
	}
	return strings.Contains(strings.ToLower(body), strings.ToLower(p.Signature))
}

// ExpiryString renders the lifetime for log lines.
func (p Policy) ExpiryString() string {
	if p.ExpireSeconds == 0 {
		return "infinite"
	}
	return p.TTL().String()
}

// HashKey returns the MD5 hash of resource, encoded as a hex string.
func HashKey(resource string) string {
	h := md5.New()
	_, _ = h.Write([]byte(resource))
	return hex.EncodeToString(h.Sum(nil))
}

// Tag returns the last non-empty path segment of resource. It is attached to
// stored entries so they can be dropped as a group.
func Tag(resource string) string {
	parts := strings.Split(resource, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return ""
}
