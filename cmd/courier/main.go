// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command courier drives the messaging SDK from a terminal: create a
// session, send messages, list conversations and stream live events.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bureau-foundation/courier/cmd/courier/commands"
)

func main() {
	if err := run(); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return commands.Root().Execute(context.Background(), os.Args[1:])
}
