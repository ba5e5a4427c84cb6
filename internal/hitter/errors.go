// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package hitter

import (
	"fmt"
	"net/http"
)

// Kind classifies a Failure.
type Kind int

const (
	// KindNetwork covers connection errors, timeouts and non-2xx replies.
	KindNetwork Kind = iota + 1
	// KindInvalidArgument means the request could not be built.
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindInvalidArgument:
		return "invalid_argument"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Failure is the uniform error returned by Perform. StatusCode is 0 and Raw is
// nil when no response was received.
type Failure struct {
	Kind       Kind
	StatusCode int
	Body       string
	Raw        *http.Response
	Err        error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Kind.String() + " failure"
	}
	return f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

func invalid(err error) *Failure {
	return &Failure{Kind: KindInvalidArgument, Err: err}
}
