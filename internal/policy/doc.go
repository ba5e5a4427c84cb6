// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package policy turns loosely shaped caching directives (a boolean, a TTL in
// seconds, or a structured override) into the canonical Policy that governs a
// single fetch. Resolution is pure and never fails.
package policy
