// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/staranto/cachefetch/internal/cacheutil"
	"github.com/staranto/cachefetch/internal/fetch"
	"github.com/staranto/cachefetch/internal/hitter"
	mylog "github.com/staranto/cachefetch/internal/log"
	"github.com/staranto/cachefetch/internal/meta"
	"github.com/staranto/cachefetch/internal/output"
	"github.com/staranto/cachefetch/internal/policy"
)

// ErrCacheDisabled is returned by the cache maintenance commands when
// CACHEFETCH_CACHE turns caching off.
var ErrCacheDisabled = errors.New("caching is disabled")

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// StoreConfig builds the cacheutil.Config selected by the store flags.
func StoreConfig(cmd *cli.Command) cacheutil.Config {
	return cacheutil.Config{
		Backend:  cmd.String("store"),
		Dir:      cmd.String("cache-dir"),
		Bucket:   cmd.String("s3-bucket"),
		Prefix:   cmd.String("s3-prefix"),
		Region:   cmd.String("s3-region"),
		Profile:  cmd.String("s3-profile"),
		Endpoint: cmd.String("s3-endpoint"),
	}
}

// OpenStore opens the store selected by the flags. It returns a nil store
// when CACHEFETCH_CACHE disables caching. The returned close func is never
// nil.
func OpenStore(ctx context.Context, cmd *cli.Command) (cacheutil.Store, func(), error) {
	noop := func() {}
	if !cacheutil.Enabled() {
		log.Debug("caching disabled by environment")
		return nil, noop, nil
	}

	sc := StoreConfig(cmd)
	store, err := cacheutil.Open(ctx, sc)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to open %s store: %w", sc.Backend, err)
	}
	log.Debugf("store: %s", sc.Backend)

	closer, ok := store.(io.Closer)
	if !ok {
		return store, noop, nil
	}
	return store, func() {
		if err := closer.Close(); err != nil {
			log.WithError(err).Warn("failed to close store")
		}
	}, nil
}

// OpenMaintainer opens the store and requires it to support maintenance.
func OpenMaintainer(ctx context.Context, cmd *cli.Command) (cacheutil.Maintainer, func(), error) {
	store, closeFn, err := OpenStore(ctx, cmd)
	if err != nil {
		return nil, closeFn, err
	}
	if store == nil {
		return nil, closeFn, ErrCacheDisabled
	}
	m, ok := store.(cacheutil.Maintainer)
	if !ok {
		closeFn()
		return nil, func() {}, fmt.Errorf("%s store does not support maintenance", cmd.String("store"))
	}
	return m, closeFn, nil
}

// NewHitter builds the HTTP collaborator from the transport flags.
func NewHitter(cmd *cli.Command) *hitter.Hitter {
	opts := []hitter.Option{
		hitter.WithTimeout(cmd.Duration("timeout")),
		hitter.WithLogger(mylog.Leveled{}),
	}
	if n := cmd.Int("retries"); n > 0 {
		opts = append(opts, hitter.WithRetries(n, 0, 0))
	}
	return hitter.New(opts...)
}

// NewFetcher builds a Fetcher over store that logs through apex/log.
func NewFetcher(cmd *cli.Command, store cacheutil.Store) *fetch.Fetcher {
	return fetch.New(store, NewHitter(cmd), fetch.WithLogger(log.Log))
}

// ParseHeaders turns 'Name: value' strings into a header set. Repeated names
// accumulate.
func ParseHeaders(values []string) (http.Header, error) {
	h := http.Header{}
	for _, v := range values {
		if err := HeaderValidator(v); err != nil {
			return nil, err
		}
		name, value, _ := strings.Cut(v, ":")
		h.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return h, nil
}

// ParseOpts turns key=value strings into top-level caching keys. Values stay
// strings; the policy resolver coerces numbers and booleans.
func ParseOpts(values []string) (map[string]any, error) {
	m := map[string]any{}
	for _, v := range values {
		k, val, ok := strings.Cut(v, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("option %q must be of the form key=value", v)
		}
		m[k] = strings.TrimSpace(val)
	}
	return m, nil
}

// SelectHook returns a before_store hook that keeps only the part of a json
// body addressed by the gjson path. Bodies without a match are kept whole.
func SelectHook(path string) policy.Hook {
	return func(body, _, resource string, _ policy.Policy) string {
		r := gjson.Get(body, path)
		if !r.Exists() {
			log.Debugf("select %q matched nothing in %s", path, resource)
			return body
		}
		if r.IsObject() || r.IsArray() {
			return r.Raw
		}
		return r.String()
	}
}

// BuildOptions collects the cache and transport flags into fetch.Options.
// --cache becomes the directive; the other cache flags are top-level keys and
// win over it.
func BuildOptions(cmd *cli.Command) (fetch.Options, error) {
	var opts fetch.Options

	if cmd.IsSet("cache") {
		opts.Cache = policy.ParseDirective(cmd.String("cache"))
	}

	extra, err := ParseOpts(cmd.StringSlice("opt"))
	if err != nil {
		return opts, err
	}
	if cmd.IsSet("ttl") {
		extra["expire"] = cmd.Int("ttl")
	}
	if cmd.Bool("reset") {
		extra["reset"] = true
	}
	if cmd.IsSet("signature") {
		extra["signature"] = cmd.String("signature")
	}
	if k := cmd.String("key"); k != "" {
		extra["key"] = k
	}
	if sel := cmd.String("select"); sel != "" {
		extra["before_store"] = SelectHook(sel)
	}
	if len(extra) > 0 {
		opts.Extra = extra
	}

	if opts.Headers, err = ParseHeaders(cmd.StringSlice("header")); err != nil {
		return opts, err
	}
	opts.CookieFile = cmd.String("cookie-file")
	opts.Timeout = cmd.Duration("timeout")

	return opts, nil
}

// EmitResult renders res to the root writer and, for text output on a
// terminal, a status line to the error writer. A failed result yields an
// error.
func EmitResult(cmd *cli.Command, resource string, res fetch.Result) error {
	root := cmd.Root()
	format := cmd.String("output")

	if err := output.EmitResult(root.Writer, res, format); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	if format == "text" && isTerminal(root.ErrWriter) {
		fmt.Fprintln(root.ErrWriter, output.StatusLine(res, cmd.Bool("color")))
	}

	if res.CacheErr != nil {
		log.WithError(res.CacheErr).Warn("result not cached")
	}

	if !res.Succeeded {
		return fmt.Errorf("%s: %s failed: %s", resource, res.Kind, res.Message)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// elapsed logs how long the named step took.
func elapsed(name string, start time.Time) {
	log.Debugf("%s took %s", name, time.Since(start))
}
