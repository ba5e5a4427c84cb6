// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetch

// Logger receives the orchestrator's progress messages.
type Logger interface {
	Log(msg string)
}

// LoggerFunc adapts a plain function to Logger.
type LoggerFunc func(msg string)

// Log implements Logger.
func (f LoggerFunc) Log(msg string) { f(msg) }

type infoLogger interface {
	Info(msg string)
}

type warnLogger interface {
	Warn(msg string)
}

type nopLogger struct{}

func (nopLogger) Log(string) {}

// infoAdapter forwards to Info and, when the target has one, Warn.
type infoAdapter struct {
	l infoLogger
}

func (a infoAdapter) Log(msg string) { a.l.Info(msg) }

func (a infoAdapter) Warn(msg string) {
	if w, ok := a.l.(warnLogger); ok {
		w.Warn(msg)
		return
	}
	a.l.Info(msg)
}

// NewLogger adapts v to Logger. nil gives a no-op, a func(string) is called
// directly, and anything with an Info(string) method (an apex log.Interface
// for one) gets its messages through Info. Unrecognised values give a no-op.
func NewLogger(v any) Logger {
	switch l := v.(type) {
	case nil:
		return nopLogger{}
	case Logger:
		return l
	case func(string):
		return LoggerFunc(l)
	case infoLogger:
		return infoAdapter{l: l}
	default:
		return nopLogger{}
	}
}

// safeLog calls l and swallows any panic it raises.
func safeLog(l Logger, msg string) {
	defer func() { _ = recover() }()
	l.Log(msg)
}

// safeWarn is safeLog at warn level when l supports it.
func safeWarn(l Logger, msg string) {
	defer func() { _ = recover() }()
	if w, ok := l.(warnLogger); ok {
		w.Warn(msg)
		return
	}
	l.Log("warning: " + msg)
}
