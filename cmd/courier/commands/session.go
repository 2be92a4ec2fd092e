// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bureau-foundation/courier/client"
	"github.com/bureau-foundation/courier/cmd/courier/cli"
)

func loginCommand(flags *connectionFlags) *cli.Command {
	return &cli.Command{
		Name:    "login",
		Summary: "Create a session and store its credentials",
		Usage:   "courier login --profile <id> [flags]",
		Examples: []cli.Example{
			{
				Description: "Log in with the secret from the environment",
				Command:     "COURIER_JWT_SECRET=... courier login --profile alice --issuer https://id.example.com --audience courier",
			},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			ctx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()

			env, err := flags.open(ctx, client.Options{})
			if err != nil {
				return err
			}
			defer env.Close()

			current, err := env.client.Service().StartSession(ctx)
			if err != nil {
				return err
			}
			if flags.JSON {
				return cli.WriteJSON(current)
			}
			fmt.Fprintf(os.Stderr, "Logged in as %s\n", current.ProfileID)
			fmt.Fprintf(os.Stderr, "Session %s expires %s\n", current.SessionID, current.Expiry().Format(time.RFC3339))
			return nil
		},
	}
}

func logoutCommand(flags *connectionFlags) *cli.Command {
	return &cli.Command{
		Name:    "logout",
		Summary: "End the stored session",
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			env, err := flags.open(ctx, client.Options{})
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.client.Service().EndSession(ctx); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "Logged out")
			return nil
		},
	}
}
