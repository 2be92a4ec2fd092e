// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command tree framework for the courier binary:
// subcommand dispatch, pflag parsing with typo suggestions, inherited
// flags, help output and the shared logger.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is one node of the command tree.
type Command struct {
	// Name is the command name as typed (e.g., "send").
	Name string

	// Summary is the one-line description in the parent's listing.
	Summary string

	// Description is shown in the command's own help.
	Description string

	// Usage overrides the synthesized usage line.
	Usage string

	Examples []Example

	// Flags binds the command's own flags.
	Flags func(flagSet *pflag.FlagSet)

	// Inherited binds flags accepted by this command and every
	// command beneath it.
	Inherited func(flagSet *pflag.FlagSet)

	Subcommands []*Command

	// Run executes a leaf command with the positional arguments left
	// after flag parsing.
	Run func(ctx context.Context, args []string) error

	// Output receives help text. Set on the root; defaults to stderr.
	Output io.Writer
}

// Example is a usage example shown in help output.
type Example struct {
	Description string
	Command     string
}

// Execute resolves args against the tree rooted at c and runs the
// selected command.
func (c *Command) Execute(ctx context.Context, args []string) error {
	path := []*Command{c}
	for len(args) > 0 {
		current := path[len(path)-1]
		if isHelpFlag(args[0]) {
			current.printHelp(path)
			return nil
		}
		if len(current.Subcommands) == 0 || strings.HasPrefix(args[0], "-") {
			break
		}
		next := current.lookup(args[0])
		if next == nil {
			return unknownCommand(args[0], path)
		}
		path = append(path, next)
		args = args[1:]
	}

	leaf := path[len(path)-1]
	if leaf.Run == nil {
		leaf.printHelp(path)
		if len(args) > 0 {
			return fmt.Errorf("%s: subcommand required (got %q)", pathName(path), args[0])
		}
		return fmt.Errorf("%s: subcommand required", pathName(path))
	}

	flagSet := flagSetFor(path)
	flagSet.SetOutput(io.Discard)
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			leaf.printHelp(path)
			return nil
		}
		return flagError(err, args, path)
	}
	return leaf.Run(ctx, flagSet.Args())
}

func (c *Command) lookup(name string) *Command {
	for _, sub := range c.Subcommands {
		if sub.Name == name {
			return sub
		}
	}
	return nil
}

// flagSetFor binds the leaf's flags plus every inherited flag along
// path.
func flagSetFor(path []*Command) *pflag.FlagSet {
	leaf := path[len(path)-1]
	flagSet := pflag.NewFlagSet(leaf.Name, pflag.ContinueOnError)
	for _, command := range path {
		if command.Inherited != nil {
			command.Inherited(flagSet)
		}
	}
	if leaf.Flags != nil {
		leaf.Flags(flagSet)
	}
	return flagSet
}

func unknownCommand(name string, path []*Command) error {
	parent := path[len(path)-1]
	if suggestion := suggestCommand(name, parent.Subcommands); suggestion != "" {
		return fmt.Errorf("unknown command %q (did you mean %q?)\n\nRun '%s --help' for usage.",
			name, suggestion, pathName(path))
	}
	return fmt.Errorf("unknown command %q\n\nRun '%s --help' for usage.", name, pathName(path))
}

func flagError(err error, args []string, path []*Command) error {
	message := err.Error()
	if strings.HasPrefix(message, "unknown") {
		if suggestion := suggestFlag(args, flagSetFor(path)); suggestion != "" {
			message += fmt.Sprintf(" (did you mean %s?)", suggestion)
		}
	}
	return fmt.Errorf("%s\n\nRun '%s --help' for usage.", message, pathName(path))
}

// PrintHelp writes c's help as a root command.
func (c *Command) PrintHelp() { c.printHelp([]*Command{c}) }

func (c *Command) printHelp(path []*Command) {
	w := path[0].Output
	if w == nil {
		w = os.Stderr
	}
	name := pathName(path)

	if text := c.Description; text != "" {
		fmt.Fprintf(w, "%s\n\n", text)
	} else if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	usage := c.Usage
	if usage == "" {
		usage = name + " [flags]"
		if len(c.Subcommands) > 0 {
			usage = name + " <command> [flags]"
		}
	}
	fmt.Fprintf(w, "Usage:\n  %s\n", usage)

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		table := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(table, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		table.Flush()
	}

	if flags := flagSetFor(path).FlagUsages(); flags != "" {
		fmt.Fprintf(w, "\nFlags:\n%s", flags)
	}

	if len(c.Examples) > 0 {
		fmt.Fprintf(w, "\nExamples:\n")
		for _, example := range c.Examples {
			if example.Description != "" {
				fmt.Fprintf(w, "  # %s\n", example.Description)
			}
			fmt.Fprintf(w, "  %s\n\n", example.Command)
		}
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", name)
	}
}

// pathName joins the command names along path (e.g., "courier send").
func pathName(path []*Command) string {
	names := make([]string, len(path))
	for i, command := range path {
		names[i] = command.Name
	}
	return strings.Join(names, " ")
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
