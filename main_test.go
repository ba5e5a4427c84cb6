// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/cachefetch/internal/config"
)

func TestMangleArguments(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
get:
  defaults:
    - --ttl 60
  fresh:
    - --reset
    - -H "Accept:json"
fetch:
  json:
    - -H Content-Type:application/json
`), 0o600))
	t.Setenv(config.EnvCfg, path)
	config.Config = config.Type{}
	t.Cleanup(func() { config.Config = config.Type{} })

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "defaults inserted after command",
			args: []string{"cf", "get", "https://x.test"},
			want: []string{"cf", "get", "--ttl", "60", "https://x.test"},
		},
		{
			name: "named set replaces defaults in place",
			args: []string{"cf", "get", "-o", "json", "@fresh", "https://x.test"},
			want: []string{"cf", "get", "-o", "json", "--reset", "-H", `"Accept:json"`, "https://x.test"},
		},
		{
			name: "data file is not a set",
			args: []string{"cf", "fetch", "-d", "@body.json", "@json", "POST", "https://x.test"},
			want: []string{"cf", "fetch", "-d", "@body.json", "-H", "Content-Type:application/json", "POST", "https://x.test"},
		},
		{
			name: "unknown set expands to nothing",
			args: []string{"cf", "get", "@nope", "https://x.test"},
			want: []string{"cf", "get", "https://x.test"},
		},
		{
			name: "help short-circuits",
			args: []string{"cf", "get", "--ttl", "5", "-h"},
			want: []string{"cf", "get", "--help"},
		},
		{
			name: "other commands untouched",
			args: []string{"cf", "cache", "ls", "@x"},
			want: []string{"cf", "cache", "ls", "@x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mangleArguments(tt.args))
		})
	}
}
