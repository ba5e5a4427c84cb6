// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/cachefetch/internal/output"
)

// GlobalFlagsValidator checks the flags that every command shares.
func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	if c.IsSet("output") {
		return OutputValidator(c.String("output"))
	}
	return nil
}

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func OutputValidator(value any) error {
	if !slices.Contains(output.Formats, value.(string)) {
		return fmt.Errorf("must be one of %v", output.Formats)
	}
	return nil
}

var validStores = []string{"file", "sqlite", "s3"}

func StoreValidator(value any) error {
	if !slices.Contains(validStores, strings.ToLower(value.(string))) {
		return fmt.Errorf("must be one of %v", validStores)
	}
	return nil
}

// TTLValidator accepts -1 (unset), 0 (forever) and positive seconds.
func TTLValidator(value any) error {
	if value.(int) < -1 {
		return errors.New("must be 0 or a positive number of seconds")
	}
	return nil
}

// HeaderValidator requires the 'Name: value' form with a non-empty name.
func HeaderValidator(value any) error {
	name, _, ok := strings.Cut(value.(string), ":")
	if !ok || strings.TrimSpace(name) == "" || strings.ContainsAny(name, " \t") {
		return fmt.Errorf("header %q must be of the form 'Name: value'", value)
	}
	return nil
}

// URLValidator requires an absolute http or https URL.
func URLValidator(value any) error {
	u, err := url.Parse(value.(string))
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", value, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid url %q: must be an absolute http(s) url", value)
	}
	return nil
}
