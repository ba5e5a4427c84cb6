// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package fetch performs HTTP requests through a cache.
//
// A call resolves a policy.Policy from its Options, then Decide consults the
// store (dropping the entry first when a reset is asked for). A hit is served
// without touching the network. On a miss the request goes to the Performer
// and a successful response is handed to Finalize, which validates the
// signature, applies the before_store hook and writes the entry. Failures are
// never cached and never returned as Go errors; every outcome is a Result.
package fetch
