// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package policy

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolve_Defaults(t *testing.T) {
	p := Resolve("get", "http://x/a", nil, nil)

	assert.True(t, p.Enabled)
	assert.False(t, p.Reset)
	assert.Equal(t, 0, p.ExpireSeconds)
	assert.Equal(t, "", p.Signature)
	assert.Nil(t, p.BeforeStore)
	assert.Equal(t, HashKey("http://x/a"), p.Key)
}

func TestResolve_Directives(t *testing.T) {
	tests := []struct {
		name    string
		cache   Directive
		extra   map[string]any
		want    Policy
		wantKey string
	}{
		{
			name:  "disabled",
			cache: Disabled{},
			want:  Policy{Enabled: false},
		},
		{
			name:  "ttl keeps caching enabled",
			cache: TTL(300),
			want:  Policy{Enabled: true, ExpireSeconds: 300},
		},
		{
			name: "override merges over defaults",
			cache: Override{
				Expire:    Int(60),
				Reset:     Bool(true),
				Signature: String("TOKEN"),
			},
			want: Policy{Enabled: true, ExpireSeconds: 60, Reset: true, Signature: "TOKEN"},
		},
		{
			name:    "override key replaces derived key",
			cache:   Override{Key: String("custom")},
			want:    Policy{Enabled: true},
			wantKey: "custom",
		},
		{
			name:  "override can disable",
			cache: Override{Enabled: Bool(false)},
			want:  Policy{Enabled: false},
		},
		{
			name:  "negative expire coerced to zero",
			cache: Override{Expire: Int(-5)},
			want:  Policy{Enabled: true, ExpireSeconds: 0},
		},
		{
			name:  "top-level extra wins over directive",
			cache: Override{Signature: String("inner"), Expire: Int(10)},
			extra: map[string]any{"signature": "outer", "headers": "ignored"},
			want:  Policy{Enabled: true, ExpireSeconds: 10, Signature: "outer"},
		},
		{
			name:    "top-level key",
			extra:   map[string]any{"key": "from-extra", "expire": "120"},
			want:    Policy{Enabled: true, ExpireSeconds: 120},
			wantKey: "from-extra",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve("GET", "http://x/a", tt.cache, tt.extra)

			wantKey := tt.wantKey
			if wantKey == "" {
				wantKey = HashKey("http://x/a")
			}

			assert.Equal(t, wantKey, got.Key)
			assert.Equal(t, tt.want.Enabled, got.Enabled)
			assert.Equal(t, tt.want.ExpireSeconds, got.ExpireSeconds)
			assert.Equal(t, tt.want.Reset, got.Reset)
			assert.Equal(t, tt.want.Signature, got.Signature)
		})
	}
}

func TestResolve_NonReadNeverEnabled(t *testing.T) {
	directives := []Directive{
		nil,
		TTL(30),
		Override{Enabled: Bool(true)},
		Override{Expire: Int(10), Enabled: Bool(true), Reset: Bool(true)},
	}
	actions := []string{"post", "PUT", " delete ", "patch", "head", ""}

	for _, action := range actions {
		for _, d := range directives {
			p := Resolve(action, "http://x/a", d, map[string]any{"enabled": true})
			assert.False(t, p.Enabled, "action %q directive %#v", action, d)
		}
	}
}

func TestResolve_ActionNormalisation(t *testing.T) {
	for _, action := range []string{"get", "GET", " Get ", "\tgEt\n"} {
		assert.True(t, Resolve(action, "r", nil, nil).Enabled, action)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	extra := map[string]any{"signature": "abc"}
	d := Override{Expire: Int(42), Reset: Bool(true)}

	first := Resolve("get", "http://x/a", d, extra)
	second := Resolve("get", "http://x/a", d, extra)

	assert.Equal(t, first, second)
}

func TestResolve_KeyDerivation(t *testing.T) {
	a := Resolve("get", "http://x/a", nil, nil)
	b := Resolve("get", "http://x/a", TTL(5), nil)
	assert.Equal(t, a.Key, b.Key)

	c := Resolve("get", "http://x/b", nil, nil)
	assert.NotEqual(t, a.Key, c.Key)

	k1 := Resolve("get", "http://x/a", Override{Key: String("one")}, nil)
	k2 := Resolve("get", "http://x/a", Override{Key: String("two")}, nil)
	assert.NotEqual(t, k1.Key, k2.Key)
}

func TestHashKey(t *testing.T) {
	// md5("http://x/a")
	assert.Len(t, HashKey("http://x/a"), 32)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", HashKey(""))
}

func TestParseDirective(t *testing.T) {
	hook := func(body, _, _ string, _ Policy) string { return strings.ToUpper(body) }

	tests := []struct {
		name string
		in   any
		want Directive
	}{
		{name: "nil", in: nil, want: nil},
		{name: "false", in: false, want: Disabled{}},
		{name: "true", in: true, want: nil},
		{name: "int", in: 300, want: TTL(300)},
		{name: "int64", in: int64(12), want: TTL(12)},
		{name: "float64 from json", in: float64(90), want: TTL(90)},
		{name: "zero", in: 0, want: nil},
		{name: "negative", in: -4, want: nil},
		{name: "numeric string", in: "120", want: TTL(120)},
		{name: "false string", in: "false", want: Disabled{}},
		{name: "off string", in: " OFF ", want: Disabled{}},
		{name: "garbage string", in: "soon", want: nil},
		{name: "slice", in: []string{"a"}, want: nil},
		{name: "directive passthrough", in: TTL(7), want: TTL(7)},
		{name: "empty map", in: map[string]any{}, want: nil},
		{name: "unknown map keys", in: map[string]any{"colour": "red"}, want: nil},
		{
			name: "map override",
			in: map[string]any{
				"expire":    3600,
				"enabled":   true,
				"reset":     "true",
				"signature": "TOKEN",
				"key":       "k",
			},
			want: Override{
				Expire:    Int(3600),
				Enabled:   Bool(true),
				Reset:     Bool(true),
				Signature: String("TOKEN"),
				Key:       String("k"),
			},
		},
		{
			name: "numeric booleans",
			in:   map[string]any{"enabled": 0, "reset": 1},
			want: Override{Enabled: Bool(false), Reset: Bool(true)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDirective(tt.in))
		})
	}

	t.Run("before_store hook", func(t *testing.T) {
		d := ParseDirective(map[string]any{"before_store": hook})
		o, ok := d.(Override)
		assert.True(t, ok)
		if assert.NotNil(t, o.BeforeStore) {
			assert.Equal(t, "HI", o.BeforeStore("hi", "get", "r", Policy{}))
		}
	})
}

func TestPolicy_Helpers(t *testing.T) {
	p := Policy{ExpireSeconds: 90, Signature: "Token"}
	assert.Equal(t, 90*time.Second, p.TTL())
	assert.Equal(t, "1m30s", p.ExpiryString())
	assert.True(t, p.HasSignature("a TOKEN b"))
	assert.True(t, p.HasSignature("xx token"))
	assert.False(t, p.HasSignature("hello world"))

	p = Policy{}
	assert.Equal(t, "infinite", p.ExpiryString())
	assert.True(t, p.HasSignature("anything"))
}

func TestTag(t *testing.T) {
	tests := map[string]string{
		"http://x/a":             "a",
		"http://x/a/b/":          "b",
		"https://host/path/leaf": "leaf",
		"plain":                  "plain",
		"":                       "",
		"///":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Tag(in), in)
	}
}

func TestTTL_SaturatesOnOverflow(t *testing.T) {
	assert.Equal(t, 90*time.Second, Policy{ExpireSeconds: 90}.TTL())
	assert.Equal(t, time.Duration(0), Policy{}.TTL())
	assert.Equal(t, time.Duration(math.MaxInt64), Policy{ExpireSeconds: math.MaxInt}.TTL())
	assert.Equal(t, time.Duration(math.MaxInt64), Policy{ExpireSeconds: int(maxExpireSeconds) + 1}.TTL())
	assert.Equal(t, time.Duration(maxExpireSeconds)*time.Second, Policy{ExpireSeconds: int(maxExpireSeconds)}.TTL())
}
