// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package socket maintains the event socket to the backend while the
// application is in the foreground and a session is active.
//
// Controller decides whether the socket should be open; Connection
// keeps it open, reconnecting with exponential backoff; Dispatcher
// publishes decoded frames on the event bus. Controller locks before
// Connection, never the reverse.
package socket

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/courier/events"
	"github.com/bureau-foundation/courier/lib/clock"
	"github.com/bureau-foundation/courier/lifecycle"
)

// ControllerConfig holds the dependencies of a Controller.
type ControllerConfig struct {
	// URL is the socket endpoint, wss://host/apispaces/{id}/socket.
	URL string

	Dialer     Dialer
	Authorizer Authorizer
	Bus        *events.Bus

	// Backoff zero value takes DefaultBackoff.
	Backoff          Backoff
	HandshakeTimeout time.Duration

	Clock  clock.Clock
	Logger *slog.Logger
}

// Controller opens the socket on demand unless the application is
// backgrounded. It starts foregrounded.
type Controller struct {
	config ControllerConfig

	mu                sync.Mutex
	changed           *sync.Cond
	foregrounded      bool
	connection        *Connection
	unregisterNetwork func()
}

// NewController returns a Controller with no connection.
func NewController(config ControllerConfig) (*Controller, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("socket: URL is required")
	}
	if config.Dialer == nil {
		return nil, fmt.Errorf("socket: Dialer is required")
	}
	if config.Authorizer == nil {
		return nil, fmt.Errorf("socket: Authorizer is required")
	}
	if config.Bus == nil {
		return nil, fmt.Errorf("socket: Bus is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	controller := &Controller{config: config, foregrounded: true}
	controller.changed = sync.NewCond(&controller.mu)
	return controller, nil
}

// ConnectSocket opens the socket and enables reconnection. It does
// nothing while backgrounded.
func (c *Controller) ConnectSocket() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connectLocked()
	c.changed.Broadcast()
}

// DisconnectSocket closes the socket and disables reconnection.
func (c *Controller) DisconnectSocket() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectLocked()
	c.changed.Broadcast()
}

// Foregrounded connects and starts observing the network through
// scope.
func (c *Controller) Foregrounded(scope lifecycle.Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.foregrounded {
		c.foregrounded = true
		c.connectLocked()
		if c.unregisterNetwork == nil {
			c.unregisterNetwork = scope.RegisterNetworkListener(c)
		}
	}
	c.changed.Broadcast()
}

// Backgrounded disconnects and stops observing the network.
func (c *Controller) Backgrounded(lifecycle.Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.foregrounded {
		c.foregrounded = false
		c.disconnectLocked()
		if c.unregisterNetwork != nil {
			c.unregisterNetwork()
			c.unregisterNetwork = nil
		}
	}
	c.changed.Broadcast()
}

// OnEvent follows the session: connect on start, disconnect on stop.
func (c *Controller) OnEvent(event events.Event) {
	switch event.(type) {
	case events.SessionStarted:
		c.ConnectSocket()
	case events.SessionStopped:
		c.DisconnectSocket()
	}
}

func (c *Controller) OnNetworkActive() {
	c.mu.Lock()
	connection := c.connection
	c.mu.Unlock()
	if connection != nil {
		connection.OnNetworkActive()
	}
}

func (c *Controller) OnNetworkUnavailable() {
	c.mu.Lock()
	connection := c.connection
	c.mu.Unlock()
	if connection != nil {
		connection.OnNetworkUnavailable()
	}
}

// IsForegrounded reports the last lifecycle transition.
func (c *Controller) IsForegrounded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.foregrounded
}

// Connection returns the connection, or nil if none was created yet.
func (c *Controller) Connection() *Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connection
}

// Connected reports whether the socket is open.
func (c *Controller) Connected() bool {
	connection := c.Connection()
	return connection != nil && connection.Connected()
}

// WaitFor blocks until predicate, evaluated with the controller locked
// after each change, returns true. predicate must not call Controller
// methods.
func (c *Controller) WaitFor(predicate func() bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for !predicate() {
		c.changed.Wait()
	}
}

// Close disconnects for good.
func (c *Controller) Close() {
	c.DisconnectSocket()
}

func (c *Controller) connectLocked() {
	if !c.foregrounded {
		c.config.Logger.Debug("socket connect suppressed while backgrounded")
		return
	}
	if c.connection == nil {
		c.connection = NewConnection(ConnectionConfig{
			URL:              c.config.URL,
			Dialer:           c.config.Dialer,
			Authorizer:       c.config.Authorizer,
			Dispatcher:       NewDispatcher(c.config.Bus, c.config.Logger),
			Bus:              c.config.Bus,
			Backoff:          c.config.Backoff,
			HandshakeTimeout: c.config.HandshakeTimeout,
			Clock:            c.config.Clock,
			Logger:           c.config.Logger,
			OnChange:         c.broadcast,
		})
	}
	c.connection.Connect()
}

func (c *Controller) disconnectLocked() {
	if c.connection != nil {
		c.connection.Disconnect()
	}
}

func (c *Controller) broadcast() {
	c.mu.Lock()
	c.changed.Broadcast()
	c.mu.Unlock()
}
