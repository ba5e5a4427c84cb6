// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/staranto/cachefetch/internal/fetch"
	"github.com/staranto/cachefetch/internal/meta"
)

// GetCommandAction fetches every URL argument through the cache. URLs are
// fetched concurrently, identical cacheable URLs share one network call and
// results are written in argument order.
func GetCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])
	defer elapsed("get", time.Now())

	urls := cmd.Args().Slice()
	if len(urls) == 0 {
		return errors.New("at least one URL is required")
	}
	for _, u := range urls {
		if err := URLValidator(u); err != nil {
			return err
		}
	}

	opts, err := BuildOptions(cmd)
	if err != nil {
		return err
	}

	store, closeStore, err := OpenStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	group := fetch.NewGroup(NewFetcher(cmd, store))
	results := make([]fetch.Result, len(urls))

	var eg errgroup.Group
	eg.SetLimit(cmd.Int("parallel"))
	for i, u := range urls {
		eg.Go(func() error {
			results[i] = group.FetchWithCache(ctx, u, opts)
			return nil
		})
	}
	_ = eg.Wait()

	var errs []error
	for i, res := range results {
		if err := EmitResult(cmd, urls[i], res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetCommandBuilder constructs the cli.Command for "get".
func GetCommandBuilder(meta meta.Meta) *cli.Command {
	flags := []cli.Flag{
		&cli.IntFlag{
			Name:  "parallel",
			Usage: "maximum concurrent fetches",
			Value: 4,
			Validator: func(value int) error {
				if value < 1 {
					return errors.New("must be at least 1")
				}
				return nil
			},
		},
	}
	flags = append(flags, NewCacheFlags("get", meta.Config.Source)...)
	flags = append(flags, NewTransportFlags("get", meta.Config.Source)...)
	flags = append(flags, NewStoreFlags("get", meta.Config.Source)...)
	flags = append(flags, NewGlobalFlags("get", meta.Config.Source)...)

	return &cli.Command{
		Name:      "get",
		Usage:     "GET one or more URLs through the cache",
		UsageText: `cachefetch get URL... [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: GetCommandAction,
	}
}
