// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/staranto/cachefetch/internal/cacheutil"
	"github.com/staranto/cachefetch/internal/hitter"
	"github.com/staranto/cachefetch/internal/policy"
)

// Performer is the HTTP collaborator. *hitter.Hitter satisfies it.
type Performer interface {
	Perform(ctx context.Context, req hitter.Request) (*hitter.Response, error)
}

// Options are the per-call settings.
type Options struct {
	// Cache is the caching directive. nil means the defaults.
	Cache policy.Directive
	// Extra holds top-level caching keys (expire, enabled, reset, signature,
	// key, before_store). They win over Cache. A string cookie_file is used
	// when CookieFile is empty.
	Extra map[string]any
	// Headers are forwarded to the HTTP collaborator and win over its
	// defaults.
	Headers    http.Header
	CookieFile string
	// Timeout bounds the network call. Zero leaves it to the collaborator.
	Timeout time.Duration
}

// Decision is the outcome of the lookup phase. Hit means Cached is served and
// no network call is made.
type Decision struct {
	Hit    bool
	Cached string
	Policy policy.Policy
}

// Fetcher orchestrates policy resolution, cache lookup, the network call and
// cache population. It holds no locks of its own and is safe for concurrent
// use when its Store and Performer are.
type Fetcher struct {
	store  cacheutil.Store
	http   Performer
	logger Logger
	now    func() time.Time
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the progress logger. See NewLogger for the accepted shapes.
func WithLogger(l any) Option {
	return func(f *Fetcher) { f.logger = NewLogger(l) }
}

// WithClock replaces time.Now for elapsed time measurements.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// New returns a Fetcher over store and performer. A nil store disables
// caching altogether.
func New(store cacheutil.Store, performer Performer, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:  store,
		http:   performer,
		logger: nopLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchWithCache is Fetch for a GET of url with no body.
func (f *Fetcher) FetchWithCache(ctx context.Context, url string, opts Options) Result {
	f.log(fmt.Sprintf("fetch cache for %s", url))
	return f.Fetch(ctx, http.MethodGet, url, nil, opts)
}

// Fetch runs action against resource, serving from and populating the cache
// as the resolved policy allows. Every outcome is reported in the Result.
func (f *Fetcher) Fetch(ctx context.Context, action, resource string, body []byte, opts Options) Result {
	p := f.ResolveCachePolicy(action, resource, opts)

	d := f.Decide(ctx, p, resource)
	if d.Hit {
		return Result{Succeeded: true, Body: d.Cached, FromCache: true}
	}

	res := f.perform(ctx, action, resource, body, opts)
	if !res.Succeeded {
		return res
	}
	return f.Finalize(ctx, d.Policy, action, resource, res)
}

// ResolveCachePolicy returns the policy Fetch would apply.
func (f *Fetcher) ResolveCachePolicy(action, resource string, opts Options) policy.Policy {
	return policy.Resolve(action, resource, opts.Cache, opts.Extra)
}

// Decide looks p.Key up in the store. An existing entry is dropped first when
// p.Reset is set, which turns the lookup into a miss. Reset applies even when
// the policy is disabled; a disabled policy without reset never touches the
// store, and only an enabled one can hit.
func (f *Fetcher) Decide(ctx context.Context, p policy.Policy, resource string) Decision {
	d := Decision{Policy: p}
	if f.store == nil || (!p.Enabled && !p.Reset) {
		return d
	}

	cached, ok, err := f.store.Get(ctx, p.Key)
	if err != nil {
		f.warn(fmt.Sprintf("cache lookup for url %s failed: %v", resource, err))
		return d
	}
	if !ok {
		return d
	}

	if p.Reset {
		start := f.now()
		f.log(fmt.Sprintf("doing cache reset for url %s", resource))
		if err := f.store.Delete(ctx, p.Key); err != nil {
			f.warn(fmt.Sprintf("cache reset for url %s failed: %v", resource, err))
		}
		f.log(fmt.Sprintf("cache reset done in %s", f.elapsed(start)))
		return d
	}
	if !p.Enabled {
		return d
	}

	f.log(fmt.Sprintf("cache found for url %s", resource))
	d.Hit = true
	d.Cached = cached
	return d
}

// Finalize is the step after a successful network call: it checks the
// signature, applies the before_store hook and writes the entry. res is
// returned unchanged when it failed or caching is disabled.
func (f *Fetcher) Finalize(ctx context.Context, p policy.Policy, action, resource string, res Result) Result {
	if !res.Succeeded || !p.Enabled || f.store == nil {
		return res
	}

	if !p.HasSignature(res.Body) {
		res.Succeeded = false
		res.InvalidSignature = true
		res.Kind = FailureSignatureMismatch
		res.Message = fmt.Sprintf("signature %q not found", p.Signature)
		f.log(fmt.Sprintf("signature %q not found in body of %s, not caching", p.Signature, resource))
		return res
	}

	data := res.Body
	if p.BeforeStore != nil {
		data = p.BeforeStore(res.Body, action, resource, p)
	}

	start := f.now()
	f.log(fmt.Sprintf("set cache data for url %s for %s", resource, p.ExpiryString()))
	if err := f.store.Set(ctx, p.Key, data, p.TTL(), policy.Tag(resource)); err != nil {
		res.CacheErr = fmt.Errorf("failed to store cache entry for %s: %w", resource, err)
		f.warn(res.CacheErr.Error())
	} else {
		f.log(fmt.Sprintf("cache data (%s) saved in %s", humanize.Bytes(uint64(len(data))), f.elapsed(start)))
	}

	res.Body = data
	return res
}

func (f *Fetcher) perform(ctx context.Context, action, resource string, body []byte, opts Options) Result {
	cookieFile := opts.CookieFile
	if cookieFile == "" {
		if s, ok := opts.Extra["cookie_file"].(string); ok {
			cookieFile = s
		}
	}

	resp, err := f.http.Perform(ctx, hitter.Request{
		Method:     action,
		URL:        resource,
		Body:       body,
		Headers:    opts.Headers,
		CookieFile: cookieFile,
		Timeout:    opts.Timeout,
	})
	if err != nil {
		return failed(err)
	}

	return Result{
		Succeeded:  true,
		Body:       resp.Body,
		StatusCode: resp.StatusCode,
		Response:   resp.Raw,
	}
}

func (f *Fetcher) elapsed(start time.Time) string {
	return fmt.Sprintf("%.2fs", f.now().Sub(start).Seconds())
}

func (f *Fetcher) log(msg string)  { safeLog(f.logger, msg) }
func (f *Fetcher) warn(msg string) { safeWarn(f.logger, msg) }
