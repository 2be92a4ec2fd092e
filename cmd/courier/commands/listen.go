// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bureau-foundation/courier/client"
	"github.com/bureau-foundation/courier/cmd/courier/cli"
	"github.com/bureau-foundation/courier/events"
)

func listenCommand(flags *connectionFlags) *cli.Command {
	return &cli.Command{
		Name:    "listen",
		Summary: "Stream live events until interrupted",
		Description: `Open the event socket and print every event as one JSON object per
line on stdout. Session and socket state changes are included. Stops on
SIGINT or SIGTERM.`,
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			printer := &eventPrinter{encoder: json.NewEncoder(os.Stdout)}
			env, err := flags.open(ctx, client.Options{Listeners: []events.Listener{printer}})
			if err != nil {
				return err
			}
			defer env.Close()

			// A restored session has already connected the socket;
			// otherwise starting one does.
			if _, err := env.client.Service().StartSession(ctx); err != nil {
				return err
			}
			env.logger.Info("listening for events")
			<-ctx.Done()
			return nil
		},
	}
}

// eventPrinter writes each event as a JSON line.
type eventPrinter struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

type printedEvent struct {
	Name  string       `json:"name"`
	Event events.Event `json:"event"`
	Error string       `json:"error,omitempty"`
}

func (p *eventPrinter) OnEvent(event events.Event) {
	line := printedEvent{Name: event.EventName(), Event: event}
	switch failure := event.(type) {
	case events.SessionCreateFailed:
		if failure.Err != nil {
			line.Error = failure.Err.Error()
		}
	case events.SocketDisconnected:
		if failure.Err != nil {
			line.Error = failure.Err.Error()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.encoder.Encode(line)
}
