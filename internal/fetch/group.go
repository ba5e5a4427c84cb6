// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/staranto/cachefetch/internal/policy"
)

// Group wraps a Fetcher so that concurrent cacheable fetches with the same
// policy key and signature share one lookup and at most one network call.
// Calls that the policy does not cache, that reset, or that carry a
// before_store hook go straight through. Callers that join an in-flight fetch
// get the leader's Result, which was produced under the leader's ctx and
// transport options (headers, timeout, retries).
type Group struct {
	f  *Fetcher
	sf singleflight.Group
}

// NewGroup returns a Group over f.
func NewGroup(f *Fetcher) *Group {
	return &Group{f: f}
}

// FetchWithCache is Fetcher.FetchWithCache with in-flight deduplication.
func (g *Group) FetchWithCache(ctx context.Context, url string, opts Options) Result {
	return g.Fetch(ctx, http.MethodGet, url, nil, opts)
}

// Fetch is Fetcher.Fetch with in-flight deduplication. The shared Result is
// returned to every waiter; its Response body has already been consumed.
func (g *Group) Fetch(ctx context.Context, action, resource string, body []byte, opts Options) Result {
	p := g.f.ResolveCachePolicy(action, resource, opts)
	if !p.Enabled || p.Reset || p.BeforeStore != nil {
		return g.f.Fetch(ctx, action, resource, body, opts)
	}

	v, _, _ := g.sf.Do(flightKey(p), func() (any, error) {
		return g.f.Fetch(ctx, action, resource, body, opts), nil
	})
	return v.(Result)
}

// flightKey identifies fetches that would produce the same cache outcome.
// Signatures match case-insensitively.
func flightKey(p policy.Policy) string {
	return p.Key + "\x00" + strings.ToLower(p.Signature)
}
