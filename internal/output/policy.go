// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"fmt"
	"io"

	"github.com/staranto/cachefetch/internal/policy"
)

// PolicyView is the rendering of a resolved policy.
type PolicyView struct {
	Key         string `json:"key" yaml:"key"`
	Expire      int    `json:"expire" yaml:"expire"`
	Expiry      string `json:"expiry" yaml:"expiry"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Reset       bool   `json:"reset" yaml:"reset"`
	Signature   string `json:"signature" yaml:"signature"`
	BeforeStore bool   `json:"before_store" yaml:"before_store"`
	Tag         string `json:"tag" yaml:"tag"`
}

// NewPolicyView converts p for resource.
func NewPolicyView(p policy.Policy, resource string) PolicyView {
	return PolicyView{
		Key:         p.Key,
		Expire:      p.ExpireSeconds,
		Expiry:      p.ExpiryString(),
		Enabled:     p.Enabled,
		Reset:       p.Reset,
		Signature:   p.Signature,
		BeforeStore: p.BeforeStore != nil,
		Tag:         policy.Tag(resource),
	}
}

// EmitPolicy writes p to w in format.
func EmitPolicy(w io.Writer, p policy.Policy, resource, format string) error {
	v := NewPolicyView(p, resource)
	switch format {
	case "json":
		return emitJSON(w, v)
	case "yaml":
		return emitYAML(w, v)
	}

	signature := v.Signature
	if signature == "" {
		signature = "-"
	}
	_, err := fmt.Fprintf(w,
		"key          %s\nexpire       %s\nenabled      %t\nreset        %t\nsignature    %s\nbefore_store %t\ntag          %s\n",
		v.Key, v.Expiry, v.Enabled, v.Reset, signature, v.BeforeStore, v.Tag)
	return err
}
