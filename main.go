// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/cachefetch/internal/cacheutil"
	"github.com/staranto/cachefetch/internal/command"
	"github.com/staranto/cachefetch/internal/config"
	mylog "github.com/staranto/cachefetch/internal/log"
	"github.com/staranto/cachefetch/internal/version"
)

var ctx = context.Background()

// setCommands accept @set arguments expanded from the config file.
var setCommands = []string{"get", "fetch", "policy"}

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		args = mangleArguments(args)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return 0
		}
	}

	// Best-effort: pre-create cache directory when caching is enabled.
	if _, ok, err := cacheutil.EnsureBaseDir(); err != nil && !ok {
		// Non-fatal: print to stderr and continue.
		fmt.Fprintln(os.Stderr, err)
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// mangleArguments replaces an @set argument with the arguments listed under
// <command>.<set> in the config file. Without an explicit @set, the
// <command>.defaults list (if any) is inserted right after the command.
func mangleArguments(args []string) []string {
	if !slices.Contains(setCommands, args[1]) {
		return args
	}

	for _, a := range args {
		if a == "--help" || a == "-h" {
			return []string{args[0], args[1], "--help"}
		}
	}

	idx := 2
	set := "defaults"
	rest := slices.Clone(args[2:])
	for i, a := range rest {
		// @file and @- are request bodies for --data.
		if i > 0 && (rest[i-1] == "-d" || rest[i-1] == "--data") {
			continue
		}
		if strings.HasPrefix(a, "@") && len(a) > 1 {
			set = a[1:]
			idx += i
			rest = slices.Delete(rest, i, i+1)
			break
		}
	}

	var expanded []string
	setArgs, _ := config.GetStringSlice(args[1] + "." + set)
	for _, arg := range setArgs {
		expanded = append(expanded, strings.Fields(arg)...)
	}

	out := make([]string, 0, len(args)+len(expanded))
	out = append(out, args[:2]...)
	out = append(out, rest[:idx-2]...)
	out = append(out, expanded...)
	out = append(out, rest[idx-2:]...)

	log.Debugf("idx=%d, set=%s, args=%v", idx, set, out)
	return out
}
