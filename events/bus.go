// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/courier/lib/fanout"
)

// Listener receives events.
type Listener interface {
	OnEvent(event Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(event Event)

func (f ListenerFunc) OnEvent(event Event) { f(event) }

// Bus delivers events to subscribed listeners synchronously, in
// subscription order. Listeners may subscribe or unsubscribe from
// inside OnEvent; the change applies from the next Publish. A
// panicking listener is logged and skipped.
type Bus struct {
	listeners fanout.List[Listener]
	logger    *slog.Logger
}

// NewBus returns a Bus. A nil logger uses slog.Default().
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers listener and returns a function that removes it.
func (b *Bus) Subscribe(listener Listener) (unsubscribe func()) {
	return b.listeners.Add(listener)
}

// Publish delivers event to every current listener.
func (b *Bus) Publish(event Event) {
	b.listeners.Each(func(listener Listener) {
		b.deliver(listener, event)
	})
}

func (b *Bus) deliver(listener Listener, event Event) {
	defer func() {
		if recovered := recover(); recovered != nil {
			b.logger.Error("event listener panicked",
				"event", event.EventName(),
				"panic", fmt.Sprint(recovered),
			)
		}
	}()
	listener.OnEvent(event)
}
