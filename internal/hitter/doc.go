// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package hitter performs the HTTP requests behind a fetch: default headers,
// optional persistent cookie jars, optional retries, and a single Failure type
// for everything that goes wrong.
package hitter
