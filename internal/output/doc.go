// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output renders fetch results, resolved policies and cache listings
// as text, json or yaml, with filtering and sorting for listings.
package output
