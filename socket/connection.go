// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package socket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bureau-foundation/courier/events"
	"github.com/bureau-foundation/courier/lib/clock"
)

// Authorizer supplies the bearer token for the handshake and renews
// the session when the server refuses it.
type Authorizer interface {
	AccessToken() (string, bool)
	Reauthenticate(ctx context.Context) error
}

// Backoff configures reconnection delays.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration

	// Jitter is the randomization factor in [0, 1).
	Jitter float64

	// MaxAttempts stops reconnecting after this many consecutive
	// failures. Zero retries forever.
	MaxAttempts int
}

// DefaultBackoff starts at 60ms and caps at one minute.
func DefaultBackoff() Backoff {
	return Backoff{Initial: 60 * time.Millisecond, Max: time.Minute, Jitter: backoff.DefaultRandomizationFactor}
}

func (b Backoff) policy(clk clock.Clock) backoff.BackOff {
	exponential := &backoff.ExponentialBackOff{
		InitialInterval:     b.Initial,
		RandomizationFactor: b.Jitter,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         b.Max,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               clk,
	}
	var policy backoff.BackOff = exponential
	if b.MaxAttempts > 0 {
		policy = backoff.WithMaxRetries(exponential, uint64(b.MaxAttempts))
	}
	policy.Reset()
	return policy
}

// ConnectionConfig holds the dependencies of a Connection.
type ConnectionConfig struct {
	URL        string
	Dialer     Dialer
	Authorizer Authorizer
	Dispatcher *Dispatcher
	Bus        *events.Bus
	Backoff    Backoff

	// HandshakeTimeout bounds one dial.
	HandshakeTimeout time.Duration

	Clock  clock.Clock
	Logger *slog.Logger

	// OnChange is called, without locks held, after the connection
	// state changes.
	OnChange func()
}

// Connection keeps one socket open while management is enabled,
// reconnecting with exponential backoff after failures.
type Connection struct {
	config  ConnectionConfig
	backoff backoff.BackOff

	mu         sync.Mutex
	manage     bool
	conn       Conn
	connecting bool
	generation uint64
	retry      *clock.Timer
	cancelDial context.CancelFunc
	dials      int
}

// NewConnection returns a disconnected Connection.
func NewConnection(config ConnectionConfig) *Connection {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = 20 * time.Second
	}
	if config.Backoff.Initial <= 0 || config.Backoff.Max <= 0 {
		config.Backoff = DefaultBackoff()
	}
	return &Connection{config: config, backoff: config.Backoff.policy(config.Clock)}
}

// Connect enables management and dials unless already connected or
// dialing. Connect and Disconnect neither publish events nor call
// OnChange synchronously, so callers may hold their own locks.
func (c *Connection) Connect() {
	c.mu.Lock()
	c.manage = true
	c.stopRetryLocked()
	if c.conn == nil && !c.connecting {
		c.dialLocked()
	}
	c.mu.Unlock()
}

// Disconnect disables management and closes the socket. Pending
// reconnects and in-flight dials are abandoned.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	c.manage = false
	c.generation++
	c.stopRetryLocked()
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	c.connecting = false
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	// The read loop observes the close and publishes the event.
	if conn != nil {
		conn.Close()
	}
}

// OnNetworkActive retries immediately with a fresh backoff.
func (c *Connection) OnNetworkActive() {
	c.mu.Lock()
	if !c.manage {
		c.mu.Unlock()
		return
	}
	c.backoff.Reset()
	c.stopRetryLocked()
	if c.conn == nil && !c.connecting {
		c.config.Logger.Debug("network active, reconnecting socket")
		c.dialLocked()
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Connection) OnNetworkUnavailable() {
	c.config.Logger.Debug("network unavailable")
}

// Connected reports whether a socket is open.
func (c *Connection) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Dialing reports whether a dial is in flight.
func (c *Connection) Dialing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connecting
}

// Managed reports whether reconnection management is enabled.
func (c *Connection) Managed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manage
}

// Dials returns the number of dials started.
func (c *Connection) Dials() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dials
}

// ReconnectScheduled reports whether a reconnect timer is pending.
func (c *Connection) ReconnectScheduled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retry != nil
}

func (c *Connection) dialLocked() {
	c.generation++
	generation := c.generation
	ctx, cancel := context.WithTimeout(context.Background(), c.config.HandshakeTimeout)
	c.cancelDial = cancel
	c.connecting = true
	c.dials++
	go c.dial(ctx, cancel, generation)
}

func (c *Connection) dial(ctx context.Context, cancel context.CancelFunc, generation uint64) {
	defer cancel()

	token, ok := c.config.Authorizer.AccessToken()
	if !ok {
		// Session start connects the socket again.
		c.mu.Lock()
		if generation == c.generation {
			c.connecting = false
			c.cancelDial = nil
		}
		c.mu.Unlock()
		c.config.Logger.Info("socket waiting for a session")
		c.notify()
		return
	}

	conn, err := c.config.Dialer.Dial(ctx, c.config.URL, bearer(token))
	if IsUnauthorized(err) {
		c.config.Logger.Info("socket handshake rejected, renewing session")
		if renewErr := c.config.Authorizer.Reauthenticate(ctx); renewErr != nil {
			err = errors.Join(err, renewErr)
		} else if token, ok = c.config.Authorizer.AccessToken(); ok {
			conn, err = c.config.Dialer.Dial(ctx, c.config.URL, bearer(token))
		}
	}

	c.mu.Lock()
	if generation != c.generation {
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	c.connecting = false
	c.cancelDial = nil
	if err != nil {
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		c.config.Logger.Warn("socket connection failed", "error", err)
		c.config.Bus.Publish(events.SocketDisconnected{Err: err})
		c.notify()
		return
	}
	c.conn = conn
	c.backoff.Reset()
	c.mu.Unlock()

	c.config.Logger.Info("socket connected", "url", c.config.URL)
	c.config.Bus.Publish(events.SocketConnected{})
	c.notify()
	go c.read(conn, generation)
}

func (c *Connection) read(conn Conn, generation uint64) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			c.dropped(conn, generation, err)
			return
		}
		if c.config.Dispatcher != nil {
			c.config.Dispatcher.Dispatch(frame)
		}
	}
}

func (c *Connection) dropped(conn Conn, generation uint64, err error) {
	c.mu.Lock()
	if generation != c.generation || c.conn != conn {
		c.mu.Unlock()
		c.config.Logger.Info("socket disconnected")
		c.config.Bus.Publish(events.SocketDisconnected{})
		c.notify()
		return
	}
	c.conn = nil
	c.scheduleReconnectLocked()
	c.mu.Unlock()

	conn.Close()
	c.config.Logger.Warn("socket dropped", "error", err)
	c.config.Bus.Publish(events.SocketDisconnected{Err: err})
	c.notify()
}

func (c *Connection) scheduleReconnectLocked() {
	if !c.manage {
		return
	}
	delay := c.backoff.NextBackOff()
	if delay == backoff.Stop {
		c.config.Logger.Error("socket reconnection attempts exhausted", "attempts", c.config.Backoff.MaxAttempts)
		return
	}
	if delay < time.Millisecond {
		delay = time.Millisecond
	}
	generation := c.generation
	c.config.Logger.Info("socket reconnecting", "delay", delay)
	c.retry = c.config.Clock.AfterFunc(delay, func() {
		c.mu.Lock()
		if generation != c.generation || !c.manage {
			c.mu.Unlock()
			return
		}
		c.retry = nil
		if c.conn == nil && !c.connecting {
			c.dialLocked()
		}
		c.mu.Unlock()
		c.notify()
	})
}

func (c *Connection) stopRetryLocked() {
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
}

func (c *Connection) notify() {
	if c.config.OnChange != nil {
		c.config.OnChange()
	}
}

func bearer(token string) http.Header {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	return header
}
