// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
)

// NewGlobalFlags returns the output flags shared by every command. ns is the
// command name, used as the config file namespace, and src is the config file.
func NewGlobalFlags(ns, src string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"color", altsrc.StringSourcer(src)),
				yaml.YAML("color", altsrc.StringSourcer(src)),
			),
			Value: false,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"output", altsrc.StringSourcer(src)),
				yaml.YAML("output", altsrc.StringSourcer(src)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
	}

	return
}

// NewStoreFlags returns the flags selecting and configuring the cache store.
func NewStoreFlags(ns, src string) []cli.Flag {
	return []cli.Flag{
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:  "store",
			Usage: "cache store: file, sqlite or s3",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CACHEFETCH_STORE"),
			),
			Value: "file",
			Validator: func(value string) error {
				return FlagValidators(value, StoreValidator)
			},
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:  "cache-dir",
			Usage: "cache directory for the file and sqlite stores",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CACHEFETCH_CACHE_DIR"),
			),
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:    "s3-bucket",
			Usage:   "bucket for the s3 store",
			Sources: cli.NewValueSourceChain(cli.EnvVar("CACHEFETCH_S3_BUCKET")),
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:    "s3-prefix",
			Usage:   "object key prefix for the s3 store",
			Sources: cli.NewValueSourceChain(cli.EnvVar("CACHEFETCH_S3_PREFIX")),
			Value:   "cachefetch",
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:    "s3-region",
			Usage:   "region for the s3 store",
			Sources: cli.NewValueSourceChain(cli.EnvVar("AWS_REGION")),
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:    "s3-profile",
			Usage:   "shared config profile for the s3 store",
			Sources: cli.NewValueSourceChain(cli.EnvVar("AWS_PROFILE")),
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:    "s3-endpoint",
			Usage:   "custom endpoint for s3 compatible services",
			Sources: cli.NewValueSourceChain(cli.EnvVar("CACHEFETCH_S3_ENDPOINT")),
			Hidden:  true,
		}),
	}
}

// NewCacheFlags returns the flags that shape the caching policy of a fetch.
// Everything except --cache is a top-level directive and wins over it.
func NewCacheFlags(ns, src string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "cache",
			Usage: "cache directive: false/off to disable, or a ttl in seconds",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"cache", altsrc.StringSourcer(src)),
			),
		},
		&cli.IntFlag{
			Name:    "ttl",
			Aliases: []string{"t"},
			Usage:   "seconds to keep a stored body, 0 keeps it forever",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"ttl", altsrc.StringSourcer(src)),
				yaml.YAML("ttl", altsrc.StringSourcer(src)),
			),
			Value: -1,
			Validator: func(value int) error {
				return FlagValidators(value, TTLValidator)
			},
			HideDefault: true,
		},
		&cli.BoolFlag{
			Name:    "reset",
			Aliases: []string{"r"},
			Usage:   "drop an existing entry and fetch again",
		},
		&cli.StringFlag{
			Name:    "signature",
			Aliases: []string{"s"},
			Usage:   "text that must appear in a body before it is cached",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"signature", altsrc.StringSourcer(src)),
			),
		},
		&cli.StringFlag{
			Name:    "key",
			Aliases: []string{"k"},
			Usage:   "explicit cache key instead of the url hash",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.StringFlag{
			Name:  "select",
			Usage: "gjson path; only the selected part of a json body is stored and returned",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.StringSliceFlag{
			Name:  "opt",
			Usage: "extra top-level cache option as key=value (repeatable)",
		},
	}
}

// NewTransportFlags returns the flags handed through to the HTTP client.
func NewTransportFlags(ns, src string) []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "header",
			Aliases: []string{"H"},
			Usage:   "request header as 'Name: value' (repeatable)",
			Validator: func(values []string) error {
				for _, v := range values {
					if err := HeaderValidator(v); err != nil {
						return err
					}
				}
				return nil
			},
		},
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:  "cookie-file",
			Usage: "json file holding a persistent cookie jar",
		}),
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "request timeout",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CACHEFETCH_TIMEOUT"),
				yaml.YAML(ns+"."+"timeout", altsrc.StringSourcer(src)),
				yaml.YAML("timeout", altsrc.StringSourcer(src)),
			),
			Value: 30 * time.Second,
		},
		&cli.IntFlag{
			Name:  "retries",
			Usage: "retries of connection errors and 5xx responses",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"retries", altsrc.StringSourcer(src)),
				yaml.YAML("retries", altsrc.StringSourcer(src)),
			),
			Value: 0,
		},
	}
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}
