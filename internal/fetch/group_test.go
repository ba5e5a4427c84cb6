// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package fetch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/staranto/cachefetch/internal/policy"
)

func TestGroup_CollapsesConcurrentFetches(t *testing.T) {
	store := newMemStore()
	net := &fakeHTTP{body: "OK", delay: 100 * time.Millisecond}
	g := NewGroup(New(store, net))

	const n = 8
	results := make([]Result, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = g.FetchWithCache(context.Background(), "http://x/a", Options{})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, net.count())
	for _, r := range results {
		assert.True(t, r.Succeeded)
		assert.Equal(t, "OK", r.Body)
	}
}

func TestGroup_UncachedGoesThrough(t *testing.T) {
	net := &fakeHTTP{body: "OK"}
	g := NewGroup(New(newMemStore(), net))

	for range 3 {
		res := g.Fetch(context.Background(), "DELETE", "http://x/a", nil, Options{})
		assert.True(t, res.Succeeded)
	}
	res := g.FetchWithCache(context.Background(), "http://x/a", Options{Cache: policy.Disabled{}})
	assert.True(t, res.Succeeded)
	assert.Equal(t, 4, net.count())
}

func TestGroup_SignatureSeparatesFlights(t *testing.T) {
	store := newMemStore()
	net := &fakeHTTP{body: "alpha beta", delay: 100 * time.Millisecond}
	g := NewGroup(New(store, net))

	sigs := []string{"alpha", "ALPHA", "beta", "beta"}
	results := make([]Result, len(sigs))
	var wg sync.WaitGroup
	for i, sig := range sigs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = g.FetchWithCache(context.Background(), "http://x/a", Options{
				Cache: policy.Override{Signature: policy.String(sig)},
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, net.count())
	for _, r := range results {
		assert.True(t, r.Succeeded)
	}
}

func TestGroup_HookGoesThrough(t *testing.T) {
	net := &fakeHTTP{body: "OK", delay: 50 * time.Millisecond}
	g := NewGroup(New(nil, net))

	hook := func(body, _, _ string, _ policy.Policy) string { return body }

	const n = 4
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := g.FetchWithCache(context.Background(), "http://x/a", Options{
				Cache: policy.Override{BeforeStore: hook},
			})
			assert.True(t, res.Succeeded)
		}()
	}
	wg.Wait()

	assert.Equal(t, n, net.count())
}

func TestFlightKey(t *testing.T) {
	a := policy.Policy{Key: "k", Signature: "Tok"}
	assert.Equal(t, flightKey(a), flightKey(policy.Policy{Key: "k", Signature: "tok"}))
	assert.NotEqual(t, flightKey(a), flightKey(policy.Policy{Key: "k"}))
	assert.NotEqual(t, flightKey(a), flightKey(policy.Policy{Key: "k2", Signature: "Tok"}))
}
