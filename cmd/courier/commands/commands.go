// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the courier command tree.
package commands

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/courier/cmd/courier/cli"
	"github.com/bureau-foundation/courier/lib/version"
)

// Root returns the top-level command.
func Root() *cli.Command {
	flags := &connectionFlags{}
	return &cli.Command{
		Name:    "courier",
		Summary: "Messaging SDK command-line client",
		Description: `courier exercises the messaging SDK against a backend API space.

Configuration is read from the file named by --config or $COURIER_CONFIG.
Sessions are authenticated with a JWT signed by the secret in
$COURIER_JWT_SECRET, the file named by --secret-file, or a terminal prompt,
and persist in the configured credentials directory between runs.`,
		Inherited: flags.register,
		Subcommands: []*cli.Command{
			loginCommand(flags),
			sendCommand(flags),
			conversationsCommand(flags),
			listenCommand(flags),
			logoutCommand(flags),
			versionCommand(),
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(_ context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			fmt.Println(version.Full())
			return nil
		},
	}
}
