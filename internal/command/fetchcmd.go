// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cachefetch/internal/meta"
)

// FetchCommandAction runs METHOD against URL. Only GETs are cached.
func FetchCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])
	defer elapsed("fetch", time.Now())

	method, url, err := methodAndURL(cmd)
	if err != nil {
		return err
	}

	body, err := ReadData(cmd.String("data"), cmd.Root().Reader)
	if err != nil {
		return err
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

	res := NewFetcher(cmd, store).Fetch(ctx, method, url, body, opts)
	return EmitResult(cmd, url, res)
}

// ReadData resolves the --data value. "@path" reads the file, "@-" reads in
// and anything else is sent as is.
func ReadData(data string, in io.Reader) ([]byte, error) {
	if data == "" {
		return nil, nil
	}
	if !strings.HasPrefix(data, "@") {
		return []byte(data), nil
	}

	path := strings.TrimPrefix(data, "@")
	if path == "-" {
		if in == nil {
			in = os.Stdin
		}
		b, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body from stdin: %w", err)
		}
		return b, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return b, nil
}

func methodAndURL(cmd *cli.Command) (string, string, error) {
	if cmd.Args().Len() != 2 {
		return "", "", errors.New("usage: METHOD URL")
	}
	method := strings.ToUpper(cmd.Args().Get(0))
	url := cmd.Args().Get(1)
	if err := URLValidator(url); err != nil {
		return "", "", err
	}
	return method, url, nil
}

// FetchCommandBuilder constructs the cli.Command for "fetch".
func FetchCommandBuilder(meta meta.Meta) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "request body, @file to read it from a file or @- for stdin",
		},
	}
	flags = append(flags, NewCacheFlags("fetch", meta.Config.Source)...)
	flags = append(flags, NewTransportFlags("fetch", meta.Config.Source)...)
	flags = append(flags, NewStoreFlags("fetch", meta.Config.Source)...)
	flags = append(flags, NewGlobalFlags("fetch", meta.Config.Source)...)

	return &cli.Command{
		Name:      "fetch",
		Usage:     "run any method against a URL, caching GETs",
		UsageText: `cachefetch fetch METHOD URL [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: FetchCommandAction,
	}
}
