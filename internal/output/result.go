// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/staranto/cachefetch/internal/config"
	"github.com/staranto/cachefetch/internal/fetch"
)

// Formats accepted by the --output flag.
var Formats = []string{"text", "json", "yaml"}

// Envelope is the structured rendering of a fetch.Result.
type Envelope struct {
	Succeeded        bool   `json:"succeeded" yaml:"succeeded"`
	StatusCode       int    `json:"status_code" yaml:"status_code"`
	Body             string `json:"body" yaml:"body"`
	Message          string `json:"message,omitempty" yaml:"message,omitempty"`
	InvalidSignature bool   `json:"invalid_signature" yaml:"invalid_signature"`
	FromCache        bool   `json:"from_cache" yaml:"from_cache"`
	Kind             string `json:"kind" yaml:"kind"`
	CacheError       string `json:"cache_error,omitempty" yaml:"cache_error,omitempty"`
}

// NewEnvelope converts res.
func NewEnvelope(res fetch.Result) Envelope {
	e := Envelope{
		Succeeded:        res.Succeeded,
		StatusCode:       res.StatusCode,
		Body:             res.Body,
		Message:          res.Message,
		InvalidSignature: res.InvalidSignature,
		FromCache:        res.FromCache,
		Kind:             res.Kind.String(),
	}
	if res.CacheErr != nil {
		e.CacheError = res.CacheErr.Error()
	}
	return e
}

// EmitResult writes res to w. text writes the body alone (or the message for
// a failure without a body), json and yaml write the Envelope.
func EmitResult(w io.Writer, res fetch.Result, format string) error {
	switch format {
	case "json":
		return emitJSON(w, NewEnvelope(res))
	case "yaml":
		return emitYAML(w, NewEnvelope(res))
	default:
		body := res.Body
		if body == "" && !res.Succeeded {
			body = res.Message
		}
		if body == "" {
			return nil
		}
		if !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		_, err := io.WriteString(w, body)
		return err
	}
}

// StatusLine summarizes res on one line, e.g. "200 · 1.2 kB · cache miss".
func StatusLine(res fetch.Result, color bool) string {
	parts := []string{}

	switch {
	case res.FromCache:
		parts = append(parts, "cached")
	case res.StatusCode > 0:
		parts = append(parts, strconv.Itoa(res.StatusCode))
	default:
		parts = append(parts, "---")
	}

	parts = append(parts, humanize.Bytes(uint64(len(res.Body))))

	switch {
	case res.FromCache:
		parts = append(parts, "cache hit")
	case res.InvalidSignature:
		parts = append(parts, "signature mismatch, not cached")
	case !res.Succeeded:
		parts = append(parts, res.Kind.String()+" failure")
	case res.CacheErr != nil:
		parts = append(parts, "cache write failed")
	default:
		parts = append(parts, "cache miss")
	}

	line := strings.Join(parts, " · ")
	if !color {
		return line
	}

	ok, hit, fail := getStatusColors("colors")
	c := ok
	switch {
	case !res.Succeeded:
		c = fail
	case res.FromCache:
		c = hit
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render(line)
}

// getStatusColors returns configured color values for status lines.
func getStatusColors(key string) (ok string, hit string, fail string) {
	ok, _ = config.GetString(fmt.Sprintf("%s.ok", key), "#5fd700")
	hit, _ = config.GetString(fmt.Sprintf("%s.hit", key), "#00c8f0")
	fail, _ = config.GetString(fmt.Sprintf("%s.fail", key), "#ff5f5f")
	return
}

func emitJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

func emitYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}
