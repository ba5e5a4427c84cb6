// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// EnvLog names the env variable holding the log level.
const EnvLog = "CACHEFETCH_LOG"

// InitLogger sets up Apex with a custom handler writing to stderr and a log
// level from the CACHEFETCH_LOG env variable. Stdout is left to the fetched
// bodies.
func InitLogger() {
	InitLoggerTo(os.Stderr)
}

// InitLoggerTo is InitLogger with an explicit destination.
func InitLoggerTo(w io.Writer) {
	level := strings.ToUpper(os.Getenv(EnvLog))
	if level == "" {
		level = "ERROR"
	}
	log.SetHandler(NewHandler(w))
	if _, err := log.ParseLevel(strings.ToLower(level)); err != nil {
		level = "ERROR"
	}
	log.SetLevelFromString(strings.ToLower(level))
}

// CustomHandler formats log messages as a timestamp, a one letter level, the
// message and any fields in key order.
type CustomHandler struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewHandler returns a CustomHandler writing to w.
func NewHandler(w io.Writer) *CustomHandler {
	return &CustomHandler{out: w, now: time.Now}
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	timestamp := h.now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", timestamp, level, e.Message)

	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

// Leveled adapts the apex logger to the leveled logger interface used by
// retryablehttp.
type Leveled struct{}

func (Leveled) Error(msg string, kv ...any) { fields(kv).Error(msg) }
func (Leveled) Info(msg string, kv ...any)  { fields(kv).Info(msg) }
func (Leveled) Debug(msg string, kv ...any) { fields(kv).Debug(msg) }
func (Leveled) Warn(msg string, kv ...any)  { fields(kv).Warn(msg) }

func fields(kv []any) *log.Entry {
	f := log.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	if len(kv)%2 == 1 {
		f["extra"] = kv[len(kv)-1]
	}
	return log.WithFields(f)
}
