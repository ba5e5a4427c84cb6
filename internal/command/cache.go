// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cachefetch/internal/cacheutil"
	"github.com/staranto/cachefetch/internal/meta"
	"github.com/staranto/cachefetch/internal/output"
	"github.com/staranto/cachefetch/internal/policy"
)

// CacheLsAction lists the live entries of the store.
func CacheLsAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	store, closeStore, err := OpenMaintainer(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	entries, err := store.Entries(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cache entries: %w", err)
	}
	log.Debugf("entries: %d", len(entries))

	return output.EmitEntries(cmd.Root().Writer, entries, output.EntryOptions{
		Format: cmd.String("output"),
		Filter: cmd.String("filter"),
		Sort:   cmd.String("sort"),
		Color:  cmd.Bool("color"),
		Titles: cmd.Bool("titles"),
	})
}

// CacheDropAction removes every entry carrying --tag.
func CacheDropAction(ctx context.Context, cmd *cli.Command) error {
	tag := cmd.String("tag")
	if tag == "" {
		return errors.New("--tag is required")
	}

	store, closeStore, err := OpenMaintainer(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := store.DeleteTag(ctx, tag)
	if err != nil {
		return fmt.Errorf("failed to drop tag %q: %w", tag, err)
	}
	return removed(cmd, n)
}

// CacheRmAction removes single entries. An argument that is a URL is hashed
// the same way the policy resolver derives default keys.
func CacheRmAction(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return errors.New("at least one KEY or URL is required")
	}

	store, closeStore, err := OpenStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()
	if store == nil {
		return ErrCacheDisabled
	}

	for _, arg := range args {
		key := EntryKey(arg)
		if err := cacheutil.ValidateKey(key); err != nil {
			return fmt.Errorf("%q: %w", arg, err)
		}
		if err := store.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to remove %s: %w", arg, err)
		}
		log.Debugf("removed %s (%s)", arg, key)
	}
	return removed(cmd, len(args))
}

// CachePurgeAction removes entries older than --hours plus everything
// already expired.
func CachePurgeAction(ctx context.Context, cmd *cli.Command) error {
	store, closeStore, err := OpenMaintainer(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	age := time.Duration(cmd.Int("hours")) * time.Hour
	n, err := store.Purge(ctx, age)
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return removed(cmd, n)
}

// EntryKey maps a KEY or URL argument to a store key.
func EntryKey(arg string) string {
	if URLValidator(arg) == nil {
		return policy.HashKey(arg)
	}
	return arg
}

func removed(cmd *cli.Command, n int) error {
	_, err := fmt.Fprintf(cmd.Root().Writer, "removed %d entries\n", n)
	return err
}

// CacheCommandBuilder constructs the cli.Command for "cache" and its
// maintenance subcommands. The store and output flags are shared by all of
// them.
func CacheCommandBuilder(meta meta.Meta) *cli.Command {
	src := meta.Config.Source
	flags := append(NewStoreFlags("cache", src), NewGlobalFlags("cache", src)...)

	withMeta := map[string]any{
		"meta": meta,
	}

	return &cli.Command{
		Name:      "cache",
		Usage:     "inspect and invalidate the cache store",
		UsageText: `cachefetch cache ls|drop|rm|purge [options]`,
		Metadata:  withMeta,
		Flags:     flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Commands: []*cli.Command{
			{
				Name:     "ls",
				Usage:    "list live entries",
				Metadata: withMeta,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "filter",
						Aliases: []string{"f"},
						Usage:   "filters to apply, e.g. 'tag=users,bytes>1024'",
						Validator: func(value string) error {
							return FlagValidators(value, JammedFlagValidator)
						},
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "columns to sort by, '-' prefix for descending",
						Sources: cli.NewValueSourceChain(
							yaml.YAML("cache.sort", altsrc.StringSourcer(src)),
						),
						Value: "key",
					},
					&cli.BoolFlag{
						Name:  "titles",
						Usage: "show column titles",
						Sources: cli.NewValueSourceChain(
							yaml.YAML("cache.titles", altsrc.StringSourcer(src)),
							yaml.YAML("titles", altsrc.StringSourcer(src)),
						),
					},
				},
				Action: CacheLsAction,
			},
			{
				Name:      "drop",
				Usage:     "remove every entry with a tag",
				UsageText: `cachefetch cache drop --tag TAG`,
				Metadata:  withMeta,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "tag",
						Usage: "tag to drop, the last path segment of the fetched url",
					},
				},
				Action: CacheDropAction,
			},
			{
				Name:      "rm",
				Usage:     "remove entries by key or url",
				UsageText: `cachefetch cache rm KEY|URL...`,
				Metadata:  withMeta,
				Action:    CacheRmAction,
			},
			{
				Name:      "purge",
				Usage:     "remove expired entries and those older than --hours",
				UsageText: `cachefetch cache purge [--hours N]`,
				Metadata:  withMeta,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "hours",
						Usage: "age in hours beyond which entries are removed, 0 only drops expired ones",
						Value: 0,
					},
				},
				Action: CachePurgeAction,
			},
		},
	}
}
