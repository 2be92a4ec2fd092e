// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/courier/client"
	"github.com/bureau-foundation/courier/cmd/courier/cli"
	"github.com/bureau-foundation/courier/messaging"
)

func sendCommand(flags *connectionFlags) *cli.Command {
	return &cli.Command{
		Name:    "send",
		Summary: "Send a text message to a conversation",
		Usage:   "courier send <conversation-id> <text>... [flags]",
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("conversation id and message text are required\n\nUsage: courier send <conversation-id> <text>...")
			}
			ctx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()

			env, err := flags.open(ctx, client.Options{})
			if err != nil {
				return err
			}
			defer env.Close()

			result, err := env.client.Service().SendTextMessage(ctx, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if flags.JSON {
				return cli.WriteJSON(result.Value)
			}
			fmt.Printf("%s\t%d\n", result.Value.ID, result.Value.EventID)
			return nil
		},
	}
}

func conversationsCommand(flags *connectionFlags) *cli.Command {
	var public bool
	return &cli.Command{
		Name:    "conversations",
		Summary: "List conversations",
		Flags: func(flagSet *pflag.FlagSet) {
			flagSet.BoolVar(&public, "public", false, "list public conversations instead of ones you participate in")
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

			scope := messaging.ScopeParticipant
			if public {
				scope = messaging.ScopePublic
			}
			result, err := env.client.Service().GetConversations(ctx, scope)
			if err != nil {
				return err
			}
			conversations := result.Value
			if conversations == nil {
				conversations = []messaging.Conversation{}
			}
			if flags.JSON {
				return cli.WriteJSON(conversations)
			}
			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(writer, "ID\tNAME\tPARTICIPANTS\tLATEST EVENT")
			for _, conversation := range conversations {
				fmt.Fprintf(writer, "%s\t%s\t%d\t%d\n",
					conversation.ID, conversation.Name, conversation.ParticipantCount, conversation.LatestSentEventID)
			}
			return writer.Flush()
		},
	}
}
