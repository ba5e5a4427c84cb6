// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package hitter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// DefaultUserAgent is sent unless the caller supplies its own User-Agent.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_12_4) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.36"

// DefaultTimeout bounds a request when neither the Hitter nor the Request set
// one.
const DefaultTimeout = 30 * time.Second

// Request describes a single HTTP call.
type Request struct {
	Method  string
	URL     string
	Body    []byte
	Headers http.Header
	// CookieFile, when set, names a JSON file holding a persistent cookie jar.
	CookieFile string
	// Timeout overrides the Hitter timeout for this request.
	Timeout time.Duration
}

// Response is a successful (2xx) reply with its body already read.
type Response struct {
	StatusCode int
	Body       string
	Raw        *http.Response
}

// Hitter performs HTTP requests. It is safe for concurrent use.
type Hitter struct {
	transport    http.RoundTripper
	headers      http.Header
	timeout      time.Duration
	retries      int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	logger       retryablehttp.LeveledLogger

	mu   sync.Mutex
	jars map[string]*FileJar
}

// Option customizes a Hitter.
type Option func(*Hitter)

// WithTimeout sets the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(h *Hitter) { h.timeout = d }
}

// WithRetries enables up to n retries of connection errors and 5xx replies.
// The default is no retries.
func WithRetries(n int, waitMin, waitMax time.Duration) Option {
	return func(h *Hitter) {
		h.retries = n
		if waitMin > 0 {
			h.retryWaitMin = waitMin
		}
		if waitMax > 0 {
			h.retryWaitMax = waitMax
		}
	}
}

// WithHeader adds a default header. Caller headers win on conflict.
func WithHeader(name, value string) Option {
	return func(h *Hitter) { h.headers.Set(name, value) }
}

// WithTransport replaces the pooled cleanhttp transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(h *Hitter) { h.transport = rt }
}

// WithLogger routes retry diagnostics to l.
func WithLogger(l retryablehttp.LeveledLogger) Option {
	return func(h *Hitter) { h.logger = l }
}

// New returns a Hitter with a pooled transport, the default User-Agent and no
// retries.
func New(opts ...Option) *Hitter {
	h := &Hitter{
		transport:    cleanhttp.DefaultPooledTransport(),
		headers:      http.Header{},
		timeout:      DefaultTimeout,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
		jars:         map[string]*FileJar{},
	}
	h.headers.Set("User-Agent", DefaultUserAgent)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Perform executes req. Every error it returns is a *Failure.
func (h *Hitter) Perform(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		return nil, invalid(errors.New("method is required"))
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, invalid(fmt.Errorf("failed to parse url: %w", err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, invalid(fmt.Errorf("unsupported url scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return nil, invalid(errors.New("url has no host"))
	}

	var jar *FileJar
	if req.CookieFile != "" {
		if jar, err = h.jar(req.CookieFile); err != nil {
			return nil, invalid(err)
		}
	}

	var body any
	if req.Body != nil {
		body = req.Body
	}
	r, err := retryablehttp.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, invalid(fmt.Errorf("failed to create request: %w", err))
	}
	r.Header = mergeHeaders(h.headers, req.Headers)

	timeout := h.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	resp, err := h.client(jar, timeout).Do(r)
	if jar != nil {
		if serr := jar.Save(); serr != nil {
			log.WithError(serr).Warnf("failed to save cookie file %s", req.CookieFile)
		}
	}
	if err != nil {
		f := &Failure{Kind: KindNetwork, Raw: resp, Err: fmt.Errorf("failed to execute request: %w", err)}
		if resp != nil {
			f.StatusCode = resp.StatusCode
			f.Body, _ = readBody(resp)
		}
		return nil, f
	}

	doc, err := readBody(resp)
	if err != nil {
		return nil, &Failure{
			Kind:       KindNetwork,
			StatusCode: resp.StatusCode,
			Raw:        resp,
			Err:        fmt.Errorf("failed to read response: %w", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Failure{
			Kind:       KindNetwork,
			StatusCode: resp.StatusCode,
			Body:       doc,
			Raw:        resp,
			Err:        fmt.Errorf("%s %s resulted in a %q response", method, u.Redacted(), resp.Status),
		}
	}

	return &Response{StatusCode: resp.StatusCode, Body: doc, Raw: resp}, nil
}

// client builds a retryable client for one request. The transport is shared;
// jar and timeout are per request.
func (h *Hitter) client(jar *FileJar, timeout time.Duration) *retryablehttp.Client {
	hc := &http.Client{Transport: h.transport, Timeout: timeout}
	if jar != nil {
		hc.Jar = jar
	}

	var logger any
	if h.logger != nil {
		logger = h.logger
	}

	return &retryablehttp.Client{
		HTTPClient:   hc,
		Logger:       logger,
		RetryWaitMin: h.retryWaitMin,
		RetryWaitMax: h.retryWaitMax,
		RetryMax:     h.retries,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
}

func (h *Hitter) jar(path string) (*FileJar, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if j, ok := h.jars[path]; ok {
		return j, nil
	}
	j, err := LoadFileJar(path)
	if err != nil {
		return nil, err
	}
	h.jars[path] = j
	return j, nil
}

// mergeHeaders layers caller over defaults. Caller values replace default
// values for the same (canonical) name.
func mergeHeaders(defaults, caller http.Header) http.Header {
	merged := defaults.Clone()
	if merged == nil {
		merged = http.Header{}
	}
	for k, vs := range caller {
		merged[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	return merged
}

func readBody(resp *http.Response) (string, error) {
	if resp == nil || resp.Body == nil {
		return "", nil
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	return string(b), err
}
