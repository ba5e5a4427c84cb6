// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package cacheutil provides the durable key-value stores that cached
// response bodies live in: plain files, a sqlite database, or an S3 bucket.
package cacheutil
