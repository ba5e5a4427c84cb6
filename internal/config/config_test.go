// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestConfig sets CACHEFETCH_CFG to point to a test config file.
// Returns cleanup function that should be deferred.
func setupTestConfig(t *testing.T, testdataFile string) (cleanup func()) {
	t.Helper()

	absPath, err := filepath.Abs(filepath.Join("testdata", testdataFile))
	assert.NoError(t, err, "failed to get absolute path for test config")

	t.Setenv(EnvCfg, absPath)

	// Reset the global Config to force reload
	Config = Type{}

	return func() {
		Config = Type{}
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		testFile  string
		checkFunc func(*testing.T, Type)
	}{
		{
			name:     "simple string values",
			testFile: "simple.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source)
				assert.Equal(t, "sqlite", cfg.Data["store"])
				assert.Equal(t, "/var/cache/cachefetch", cfg.Data["cache_dir"])
			},
		},
		{
			name:     "nested structure",
			testFile: "nested.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				stores, ok := cfg.Data["stores"].(map[string]interface{})
				assert.True(t, ok, "stores should be a map")
				s3, ok := stores["s3"].(map[string]interface{})
				assert.True(t, ok, "s3 should be a map")
				assert.Equal(t, "us-west-2", s3["region"])
				assert.Equal(t, "fetch-cache", s3["bucket"])
			},
		},
		{
			name:     "mixed types",
			testFile: "mixed-types.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.Equal(t, "json", cfg.Data["output"])
				assert.Equal(t, 300, cfg.Data["ttl"])
				assert.Equal(t, true, cfg.Data["reset"])
				assert.Equal(t, 12.5, cfg.Data["timeout"])
				headers, ok := cfg.Data["headers"].([]interface{})
				assert.True(t, ok)
				assert.Len(t, headers, 2)
			},
		},
		{
			name:     "empty file",
			testFile: "empty.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source, "should have a source path")
				assert.Empty(t, cfg.Data)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, tt.testFile)
			defer cleanup()

			cfg, err := Load()
			require.NoError(t, err)
			tt.checkFunc(t, cfg)
		})
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv(EnvCfg, "/nonexistent/path/cachefetch.yaml")
	Config = Type{}

	_, err := Load()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_CfgIsDirectory(t *testing.T) {
	t.Setenv(EnvCfg, "testdata")
	Config = Type{}

	_, err := Load()
	assert.ErrorIs(t, err, ErrIsDirectory)
	assert.Contains(t, err.Error(), "points to a directory")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("store: [unclosed"), 0o600))
	t.Setenv(EnvCfg, path)
	Config = Type{}

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestPath_StandardLocations(t *testing.T) {
	home := t.TempDir()
	xdg := t.TempDir()
	t.Setenv(EnvCfg, "")
	t.Setenv("APPDATA", "")
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", xdg)

	_, err := Path()
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.WriteFile(filepath.Join(home, FileName), []byte("store: file\n"), 0o600))
	got, err := Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, FileName), got)

	// XDG_CONFIG_HOME is searched first.
	require.NoError(t, os.WriteFile(filepath.Join(xdg, FileName), []byte("store: file\n"), 0o600))
	got, err = Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, FileName), got)
}

func TestGetString(t *testing.T) {
	tests := []struct {
		name         string
		testFile     string
		key          string
		defaultValue []string
		want         string
		wantErr      bool
	}{
		{
			name:     "simple string value",
			testFile: "simple.yaml",
			key:      "store",
			want:     "sqlite",
		},
		{
			name:     "nested string value",
			testFile: "nested.yaml",
			key:      "stores.s3.region",
			want:     "us-west-2",
		},
		{
			name:         "missing key with default",
			testFile:     "simple.yaml",
			key:          "missing",
			defaultValue: []string{"default-value"},
			want:         "default-value",
		},
		{
			name:     "missing key without default",
			testFile: "simple.yaml",
			key:      "missing",
			wantErr:  true,
		},
		{
			name:     "non-string value",
			testFile: "mixed-types.yaml",
			key:      "ttl",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, tt.testFile)
			defer cleanup()

			_, _ = Load()

			got, err := GetString(tt.key, tt.defaultValue...)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetInt(t *testing.T) {
	tests := []struct {
		name         string
		testFile     string
		key          string
		defaultValue []int
		want         int
		wantErr      bool
	}{
		{
			name:     "int value",
			testFile: "mixed-types.yaml",
			key:      "ttl",
			want:     300,
		},
		{
			name:     "float value converted to int",
			testFile: "mixed-types.yaml",
			key:      "timeout",
			want:     12,
		},
		{
			name:     "nested int value",
			testFile: "nested.yaml",
			key:      "stores.s3.retries",
			want:     5,
		},
		{
			name:         "missing key with default",
			testFile:     "simple.yaml",
			key:          "missing",
			defaultValue: []int{60},
			want:         60,
		},
		{
			name:     "missing key without default",
			testFile: "simple.yaml",
			key:      "missing",
			wantErr:  true,
		},
		{
			name:     "non-int value",
			testFile: "simple.yaml",
			key:      "store",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, tt.testFile)
			defer cleanup()

			_, _ = Load()

			got, err := GetInt(tt.key, tt.defaultValue...)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetBool(t *testing.T) {
	cleanup := setupTestConfig(t, "mixed-types.yaml")
	defer cleanup()

	got, err := GetBool("reset")
	assert.NoError(t, err)
	assert.True(t, got)

	got, err = GetBool("color")
	assert.NoError(t, err)
	assert.False(t, got)

	got, err = GetBool("missing", true)
	assert.NoError(t, err)
	assert.True(t, got)

	_, err = GetBool("output")
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestGet(t *testing.T) {
	cleanup := setupTestConfig(t, "mixed-types.yaml")
	defer cleanup()

	val, err := Get("headers")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"Accept: application/json", "X-Client: cachefetch"}, val)
}

func TestGetStringSlice(t *testing.T) {
	cleanup := setupTestConfig(t, "mixed-types.yaml")
	defer cleanup()

	got, err := GetStringSlice("headers")
	require.NoError(t, err)
	assert.Equal(t, []string{"Accept: application/json", "X-Client: cachefetch"}, got)

	got, err = GetStringSlice("output")
	require.NoError(t, err)
	assert.Equal(t, []string{"json"}, got)

	got, err = GetStringSlice("missing", []string{"x"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"x"}, got)

	_, err = GetStringSlice("ttl")
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestConfig_GetWithNamespace(t *testing.T) {
	cleanup := setupTestConfig(t, "nested.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	Config.Namespace = "stores.s3"

	val, err := Config.get("region")
	assert.NoError(t, err)
	assert.Equal(t, "us-west-2", val)

	val, err = Config.get("bucket")
	assert.NoError(t, err)
	assert.Equal(t, "fetch-cache", val)

	Config.Namespace = "stores.local"
	val, err = Config.get("region")
	assert.NoError(t, err)
	assert.Equal(t, "us-east-1", val)

	// Falls back to the bare key.
	val, err = Config.get("store")
	assert.NoError(t, err)
	assert.Equal(t, "s3", val)
}

func TestConfig_GetNestedPath(t *testing.T) {
	cleanup := setupTestConfig(t, "deep-nested.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	val, err := Config.get("level1.level2.level3.value")
	assert.NoError(t, err)
	assert.Equal(t, "deep-value", val)
}

func TestConfig_LazyLoad(t *testing.T) {
	cleanup := setupTestConfig(t, "simple.yaml")
	defer cleanup()

	val, err := GetString("store")
	assert.NoError(t, err)
	assert.Equal(t, "sqlite", val)
	assert.NotEmpty(t, Config.Source, "Config should be loaded")
}

func TestGetString_NamespaceFallback(t *testing.T) {
	cleanup := setupTestConfig(t, "namespace.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	Config.Namespace = "stores.s3"

	val, err := GetString("signature")
	assert.NoError(t, err)
	assert.Equal(t, "s3-value", val)

	val, err = GetString("specific")
	assert.NoError(t, err)
	assert.Equal(t, "s3-specific", val)

	_, err = GetString("nonexistent")
	assert.Error(t, err)
}
