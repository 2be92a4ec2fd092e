// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package socket

import (
	"log/slog"

	"github.com/bureau-foundation/courier/events"
)

// Dispatcher decodes inbound frames and publishes them on the bus.
type Dispatcher struct {
	bus    *events.Bus
	logger *slog.Logger
}

func NewDispatcher(bus *events.Bus, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{bus: bus, logger: logger}
}

// Dispatch publishes the event in frame. Undecodable frames are logged
// and dropped.
func (d *Dispatcher) Dispatch(frame []byte) {
	event, err := events.Parse(frame)
	if err != nil {
		d.logger.Warn("dropping undecodable socket frame", "error", err, "size", len(frame))
		return
	}
	if unknown, ok := event.(*events.Unknown); ok {
		d.logger.Debug("socket event not modelled", "name", unknown.Name)
	}
	d.bus.Publish(event)
}
