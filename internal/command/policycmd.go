// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cachefetch/internal/fetch"
	"github.com/staranto/cachefetch/internal/meta"
	"github.com/staranto/cachefetch/internal/output"
)

// PolicyCommandAction prints the caching policy a fetch of METHOD URL would
// use. Nothing is fetched and the store is not opened.
func PolicyCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	method, url, err := methodAndURL(cmd)
	if err != nil {
		return err
	}

	opts, err := BuildOptions(cmd)
	if err != nil {
		return err
	}

	p := fetch.New(nil, nil).ResolveCachePolicy(method, url, opts)
	return output.EmitPolicy(cmd.Root().Writer, p, url, cmd.String("output"))
}

// PolicyCommandBuilder constructs the cli.Command for "policy".
func PolicyCommandBuilder(meta meta.Meta) *cli.Command {
	flags := append(NewCacheFlags("policy", meta.Config.Source), NewGlobalFlags("policy", meta.Config.Source)...)
	// Transport flags are accepted so a policy can be checked with the same
	// command line as the fetch itself.
	flags = append(flags, NewTransportFlags("policy", meta.Config.Source)...)

	return &cli.Command{
		Name:      "policy",
		Usage:     "show the caching policy for METHOD URL",
		UsageText: `cachefetch policy METHOD URL [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: PolicyCommandAction,
	}
}
