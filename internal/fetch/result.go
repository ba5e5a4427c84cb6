// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"errors"
	"net/http"

	"github.com/staranto/cachefetch/internal/hitter"
)

// FailureKind classifies an unsuccessful Result.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureNetwork
	FailureInvalidArgument
	FailureSignatureMismatch
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureNetwork:
		return "network"
	case FailureInvalidArgument:
		return "invalid_argument"
	case FailureSignatureMismatch:
		return "signature_mismatch"
	default:
		return "unknown"
	}
}

// Result describes the outcome of one orchestrated call. A Result with
// InvalidSignature set is never Succeeded.
type Result struct {
	Succeeded  bool
	Body       string
	StatusCode int
	// Response is the raw network response. It is nil for cache hits and when
	// nothing was received.
	Response         *http.Response
	Message          string
	InvalidSignature bool
	Kind             FailureKind
	// FromCache is set when Body was served from the store.
	FromCache bool
	// CacheErr records a failed store write. The Result is still successful.
	CacheErr error
}

// failed converts an error from the HTTP collaborator into a Result.
func failed(err error) Result {
	r := Result{Kind: FailureNetwork, Message: err.Error()}

	var f *hitter.Failure
	if errors.As(err, &f) {
		r.StatusCode = f.StatusCode
		r.Response = f.Raw
		r.Body = f.Body
		if f.Kind == hitter.KindInvalidArgument {
			r.Kind = FailureInvalidArgument
		}
	}
	return r
}
