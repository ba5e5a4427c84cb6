// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"math"
	"strconv"
	"strings"
)

// Directive is the caller-supplied caching instruction. It is one of
// Disabled, TTL or Override. A nil Directive means "use the defaults".
type Directive interface {
	apply(p *Policy)
}

// Disabled turns caching off for the request.
type Disabled struct{}

func (Disabled) apply(p *Policy) { p.Enabled = false }

// TTL enables caching with the given lifetime in seconds.
type TTL int

func (t TTL) apply(p *Policy) { p.ExpireSeconds = int(t) }

// Hook transforms a fetched body into the value that is stored. The returned
// value is also what the caller receives as the result body.
type Hook func(body, action, resource string, p Policy) string

// Override is the structured form of a Directive. Nil fields keep the
// default.
type Override struct {
	Expire      *int
	Enabled     *bool
	Reset       *bool
	Signature   *string
	Key         *string
	BeforeStore Hook
}

func (o Override) apply(p *Policy) {
	if o.Expire != nil {
		p.ExpireSeconds = *o.Expire
	}
	if o.Enabled != nil {
		p.Enabled = *o.Enabled
	}
	if o.Reset != nil {
		p.Reset = *o.Reset
	}
	if o.Signature != nil {
		p.Signature = *o.Signature
	}
	if o.Key != nil {
		p.Key = *o.Key
	}
	if o.BeforeStore != nil {
		p.BeforeStore = o.BeforeStore
	}
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// ParseDirective converts a loosely typed value, as decoded from yaml, json or
// a command line flag, into a Directive. Shapes it does not recognise yield
// nil, which means the defaults apply.
func ParseDirective(v any) Directive {
	switch val := v.(type) {
	case nil:
		return nil
	case Directive:
		return val
	case bool:
		if !val {
			return Disabled{}
		}
		return nil
	case string:
		return parseDirectiveString(val)
	case map[string]any:
		o, ok := parseOverride(val)
		if !ok {
			return nil
		}
		return o
	}

	if n, ok := asInt(v); ok && n > 0 {
		return TTL(n)
	}
	return nil
}

func parseDirectiveString(s string) Directive {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "false", "off", "no":
		return Disabled{}
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return TTL(n)
	}
	return nil
}

// parseOverride reads the recognised caching keys out of m. ok is false when
// m holds none of them.
func parseOverride(m map[string]any) (o Override, ok bool) {
	for k, v := range m {
		switch strings.ToLower(k) {
		case "expire":
			if n, good := asInt(v); good {
				o.Expire = Int(n)
				ok = true
			}
		case "enabled":
			if b, good := asBool(v); good {
				o.Enabled = Bool(b)
				ok = true
			}
		case "reset":
			if b, good := asBool(v); good {
				o.Reset = Bool(b)
				ok = true
			}
		case "signature":
			if s, good := v.(string); good {
				o.Signature = String(s)
				ok = true
			}
		case "key":
			if s, good := v.(string); good && s != "" {
				o.Key = String(s)
				ok = true
			}
		case "before_store":
			switch h := v.(type) {
			case Hook:
				o.BeforeStore = h
				ok = true
			case func(body, action, resource string, p Policy) string:
				o.BeforeStore = h
				ok = true
			}
		}
	}
	return o, ok
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return math.MaxInt, true
		}
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return parsed, err == nil
	}
	if n, ok := asInt(v); ok {
		return n != 0, true
	}
	return false, false
}
