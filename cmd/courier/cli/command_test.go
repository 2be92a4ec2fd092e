// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestExecuteDispatchesToSubcommand(t *testing.T) {
	var called string
	var received []string
	root := &Command{
		Name: "courier",
		Subcommands: []*Command{
			{Name: "version", Run: func(context.Context, []string) error { called = "version"; return nil }},
			{
				Name: "conversations",
				Subcommands: []*Command{
					{Name: "list", Run: func(_ context.Context, args []string) error {
						called = "conversations list"
						received = args
						return nil
					}},
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"conversations", "list", "extra"}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if called != "conversations list" {
		t.Errorf("dispatched to %q", called)
	}
	if len(received) != 1 || received[0] != "extra" {
		t.Errorf("args = %v, want [extra]", received)
	}
}

func TestExecuteParsesOwnAndInheritedFlags(t *testing.T) {
	var configPath, conversation string
	var positional []string
	root := &Command{
		Name: "courier",
		Inherited: func(flagSet *pflag.FlagSet) {
			flagSet.StringVar(&configPath, "config", "", "configuration file")
		},
		Subcommands: []*Command{{
			Name: "send",
			Flags: func(flagSet *pflag.FlagSet) {
				flagSet.StringVar(&conversation, "conversation", "", "conversation id")
			},
			Run: func(_ context.Context, args []string) error {
				positional = args
				return nil
			},
		}},
	}

	err := root.Execute(context.Background(), []string{"send", "--conversation", "c1", "hello", "--config", "courier.yaml"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if conversation != "c1" || configPath != "courier.yaml" {
		t.Errorf("conversation = %q, config = %q", conversation, configPath)
	}
	if len(positional) != 1 || positional[0] != "hello" {
		t.Errorf("args = %v", positional)
	}
}

func TestExecutePassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")
	var got any
	root := &Command{Name: "courier", Run: func(ctx context.Context, _ []string) error {
		got = ctx.Value(key{})
		return nil
	}}
	if err := root.Execute(ctx, nil); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got != "value" {
		t.Errorf("context value = %v", got)
	}
}

func TestExecuteSuggestsCommand(t *testing.T) {
	root := &Command{
		Name:        "courier",
		Subcommands: []*Command{{Name: "listen", Run: func(context.Context, []string) error { return nil }}},
	}
	err := root.Execute(context.Background(), []string{"lisen"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "listen"`) {
		t.Errorf("Execute(lisen) = %v", err)
	}
}

func TestExecuteSuggestsFlag(t *testing.T) {
	command := &Command{
		Name: "send",
		Flags: func(flagSet *pflag.FlagSet) {
			flagSet.String("conversation", "", "conversation id")
		},
		Run: func(context.Context, []string) error { return nil },
	}
	err := command.Execute(context.Background(), []string{"--conversaton", "c1"})
	if err == nil || !strings.Contains(err.Error(), "did you mean --conversation") {
		t.Errorf("Execute = %v", err)
	}
}

func TestExecuteRequiresSubcommand(t *testing.T) {
	root := &Command{Name: "courier", Output: io.Discard, Subcommands: []*Command{{Name: "version"}}}
	if err := root.Execute(context.Background(), nil); err == nil {
		t.Error("Execute with no subcommand succeeded")
	}
}

func TestHelpListsCommandsAndInheritedFlags(t *testing.T) {
	var buffer bytes.Buffer
	root := &Command{
		Name:    "courier",
		Summary: "Messaging client",
		Output:  &buffer,
		Inherited: func(flagSet *pflag.FlagSet) {
			flagSet.String("config", "", "configuration file")
		},
		Subcommands: []*Command{{
			Name:    "login",
			Summary: "Create a session",
			Flags:   func(flagSet *pflag.FlagSet) { flagSet.String("profile", "", "profile id") },
			Run:     func(context.Context, []string) error { return nil },
		}},
	}

	root.PrintHelp()
	for _, want := range []string{"Messaging client", "login", "Create a session", "--config"} {
		if !strings.Contains(buffer.String(), want) {
			t.Errorf("root help missing %q:\n%s", want, buffer.String())
		}
	}

	buffer.Reset()
	if err := root.Execute(context.Background(), []string{"login", "--help"}); err != nil {
		t.Fatalf("login --help = %v", err)
	}
	for _, want := range []string{"courier login [flags]", "--profile", "--config"} {
		if !strings.Contains(buffer.String(), want) {
			t.Errorf("login help missing %q:\n%s", want, buffer.String())
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"send", "send", 0},
		{"lisen", "listen", 1},
		{"kitten", "sitting", 3},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var buffer bytes.Buffer
	newLogger(&buffer, "json", slog.LevelInfo).Debug("hidden")
	newLogger(&buffer, "json", slog.LevelInfo).Info("shown", "key", "value")

	var record map[string]any
	if err := json.Unmarshal(buffer.Bytes(), &record); err != nil {
		t.Fatalf("output is not a single JSON record: %v\n%s", err, buffer.String())
	}
	if record["msg"] != "shown" || record["key"] != "value" {
		t.Errorf("record = %v", record)
	}

	buffer.Reset()
	newLogger(&buffer, "text", slog.LevelDebug).Debug("plain")
	if !strings.Contains(buffer.String(), "msg=plain") {
		t.Errorf("text output = %q", buffer.String())
	}
}
