// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package client is the SDK entry point. New wires the REST client,
// the session controller, the event socket and push handling from one
// configuration; Initialise restores any stored session; Service
// exposes the backend operations.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bureau-foundation/courier/credstore"
	"github.com/bureau-foundation/courier/events"
	"github.com/bureau-foundation/courier/lib/clock"
	"github.com/bureau-foundation/courier/lib/config"
	"github.com/bureau-foundation/courier/lib/netutil"
	"github.com/bureau-foundation/courier/lib/sealed"
	"github.com/bureau-foundation/courier/lifecycle"
	"github.com/bureau-foundation/courier/messaging"
	"github.com/bureau-foundation/courier/push"
	"github.com/bureau-foundation/courier/session"
	"github.com/bureau-foundation/courier/socket"
)

// PushProvider names the push service tokens are registered with.
const PushProvider = "fcm"

// Options supplies the host-specific parts of a Client. Every field is
// optional except Authenticator, without which sessions can only be
// restored from the store.
type Options struct {
	Authenticator session.Authenticator

	// Store defaults to a file store when the configuration names a
	// credentials directory, otherwise to memory.
	Store credstore.Store

	// HTTPClient defaults to a client honouring the configured proxy
	// and request timeout.
	HTTPClient *http.Client

	// Dialer defaults to a websocket dialer honouring the configured
	// proxy.
	Dialer socket.Dialer

	// PushTokenProvider enables push token registration.
	PushTokenProvider push.TokenProvider

	// Navigator opens deep links from push notifications.
	Navigator push.Navigator

	// Listeners are subscribed to the event bus before Initialise.
	Listeners []events.Listener

	Clock  clock.Clock
	Logger *slog.Logger
}

// Client is one SDK instance bound to one API space.
type Client struct {
	config *config.Config
	logger *slog.Logger
	clock  clock.Clock

	state     *session.StateHolder
	bus       *events.Bus
	api       *messaging.Client
	store     credstore.Store
	sessions  *session.Controller
	socket    *socket.Controller
	push      *push.Manager
	handler   *push.Handler
	lifecycle *lifecycle.Fanout
	service   *Service

	unsubscribe []func()
}

// New builds a Client. It performs no I/O beyond opening the
// credential store; call Initialise next.
func New(cfg *config.Config, options Options) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("client: configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("client: invalid configuration: %w", err)
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}
	proxyURL, err := cfg.ProxyURL()
	if err != nil {
		return nil, fmt.Errorf("client: endpoints.proxy: %w", err)
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		transport, err := netutil.ProxyTransport(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("client: %w", err)
		}
		httpClient = &http.Client{Transport: transport, Timeout: cfg.Session.RequestTimeout}
	}
	api, err := messaging.NewClient(messaging.ClientConfig{
		BaseURL:    cfg.Endpoints.Service,
		APISpace:   cfg.APISpace,
		HTTPClient: httpClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	store := options.Store
	if store == nil {
		store, err = openStore(cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	state := &session.StateHolder{}
	bus := events.NewBus(logger)
	sessions, err := session.NewController(session.Config{
		Backend:       api,
		Store:         store,
		Authenticator: options.Authenticator,
		State:         state,
		Bus:           bus,
		Policy: session.RetryPolicy{
			MaxUnauthorizedRetries: cfg.Session.MaxUnauthorizedRetries,
			RenewalAttempts:        cfg.Session.RenewalAttempts,
			CreateTimeout:          cfg.Session.CreateTimeout,
		},
		Clock:  clk,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	dialer := options.Dialer
	if dialer == nil {
		dialer, err = socket.NewWebsocketDialer(proxyURL, cfg.Socket.HandshakeTimeout)
		if err != nil {
			return nil, err
		}
	}
	socketController, err := socket.NewController(socket.ControllerConfig{
		URL:        cfg.SocketURL(),
		Dialer:     dialer,
		Authorizer: sessions,
		Bus:        bus,
		Backoff: socket.Backoff{
			Initial:     cfg.Socket.ReconnectInitial,
			Max:         cfg.Socket.ReconnectMax,
			Jitter:      cfg.Socket.ReconnectJitter,
			MaxAttempts: cfg.Socket.MaxReconnectAttempts,
		},
		HandshakeTimeout: cfg.Socket.HandshakeTimeout,
		Clock:            clk,
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}

	c := &Client{
		config:    cfg,
		logger:    logger,
		clock:     clk,
		state:     state,
		bus:       bus,
		api:       api,
		store:     store,
		sessions:  sessions,
		socket:    socketController,
		lifecycle: lifecycle.NewFanout(logger),
	}
	c.service = &Service{client: c}
	c.handler = push.NewHandler(push.ClickTrackerFunc(c.sendClickData), options.Navigator, logger)
	c.lifecycle.Add(socketController)
	c.unsubscribe = append(c.unsubscribe, bus.Subscribe(socketController))

	if options.PushTokenProvider != nil {
		c.push, err = push.NewManager(push.ManagerConfig{
			Provider:  options.PushTokenProvider,
			Registrar: push.RegistrarFunc(c.registerPushToken),
			Store:     store,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		c.unsubscribe = append(c.unsubscribe, bus.Subscribe(c.push))
	}
	for _, listener := range options.Listeners {
		c.unsubscribe = append(c.unsubscribe, bus.Subscribe(listener))
	}
	return c, nil
}

func openStore(cfg *config.Config, logger *slog.Logger) (credstore.Store, error) {
	if cfg.Credentials.Directory == "" {
		return credstore.NewMemory(), nil
	}
	var sealer sealed.Sealer
	if passphrase := cfg.Passphrase(); passphrase != "" {
		sealer = sealed.Passphrase{Secret: passphrase, WorkFactor: cfg.Credentials.WorkFactor}
	}
	store, err := credstore.NewFile(credstore.FileConfig{
		Directory: cfg.Credentials.Directory,
		APISpace:  cfg.APISpace,
		Sealer:    sealer,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("client: opening credential store: %w", err)
	}
	return store, nil
}

// Initialise moves the client to Initialised and restores the stored
// session: a valid one becomes active immediately, an expired one is
// renewed. Renewal failure is logged, not returned; the next call
// retries. Initialising an initialised client does nothing; calling
// Initialise while another call is initialising returns *MisuseError.
func (c *Client) Initialise(ctx context.Context) error {
	if !c.state.CompareAndSwap(session.NotInitialised, session.Initialising) {
		if c.state.Load() >= session.Initialised {
			return nil
		}
		return &MisuseError{Operation: "initialise", Reason: "initialisation already in progress"}
	}

	stored, err := c.store.Session()
	switch {
	case errors.Is(err, credstore.ErrCorrupt):
		c.logger.Warn("discarding unreadable stored session", "error", err)
		stored = nil
	case err != nil:
		c.state.CompareAndSwap(session.Initialising, session.NotInitialised)
		return fmt.Errorf("client: reading stored session: %w", err)
	}
	if !c.state.CompareAndSwap(session.Initialising, session.Initialised) {
		return &MisuseError{Operation: "initialise", Reason: "state changed during initialisation"}
	}

	// A call made as soon as the state reads Initialised may already
	// have created a session; its state and events win.
	switch {
	case stored == nil:
		c.logger.Info("initialised without a stored session", "api_space", c.config.APISpace)
	case stored.Valid(c.clock.Now()):
		if !c.state.CompareAndSwap(session.Initialised, session.SessionActive) {
			return nil
		}
		c.logger.Info("restored stored session", "session_id", stored.SessionID, "expires", stored.Expiry())
		c.bus.Publish(events.SessionStarted{
			ProfileID: stored.ProfileID,
			SessionID: stored.SessionID,
			ExpiresOn: stored.Expiry(),
		})
	default:
		if !c.state.CompareAndSwap(session.Initialised, session.SessionOff) {
			return nil
		}
		c.logger.Info("stored session expired, renewing", "session_id", stored.SessionID)
		if err := c.sessions.Reauthenticate(ctx); err != nil {
			c.logger.Warn("renewing stored session failed", "error", err)
		}
	}
	return nil
}

// State returns the SDK lifecycle state.
func (c *Client) State() session.GlobalState { return c.state.Load() }

// Session returns the stored session, valid or not, or nil.
func (c *Client) Session() (*credstore.SessionData, error) { return c.sessions.Session() }

// SessionPhase derives the session phase from the stored credentials.
func (c *Client) SessionPhase() session.Phase { return c.sessions.State() }

// Service returns the backend operations.
func (c *Client) Service() *Service { return c.service }

// Subscribe adds an event listener and returns a function removing it.
func (c *Client) Subscribe(listener events.Listener) (unsubscribe func()) {
	return c.bus.Subscribe(listener)
}

// AddLifecycleListener forwards foreground and background transitions
// to listener.
func (c *Client) AddLifecycleListener(listener lifecycle.Listener) (remove func()) {
	return c.lifecycle.Add(listener)
}

// Foregrounded reports that the application came to the foreground.
func (c *Client) Foregrounded(scope lifecycle.Scope) { c.lifecycle.Foregrounded(scope) }

// Backgrounded reports that the application went to the background.
func (c *Client) Backgrounded(scope lifecycle.Scope) { c.lifecycle.Backgrounded(scope) }

// SocketConnected reports whether the event socket is open.
func (c *Client) SocketConnected() bool { return c.socket.Connected() }

// HandlePush acts on an opened push notification.
func (c *Client) HandlePush(ctx context.Context, data map[string]string, navigate bool) (push.HandleResult, error) {
	if err := c.ready("handle push"); err != nil {
		return push.HandleResult{}, err
	}
	return c.handler.Handle(ctx, data, navigate)
}

// ParsePush extracts the deep link or data object of a push payload.
func ParsePush(data map[string]string) (push.Details, error) {
	return push.ParsePayload(data)
}

// PushTokenRefreshed registers a token the platform rotated. It does
// nothing without a PushTokenProvider.
func (c *Client) PushTokenRefreshed(token string) {
	if c.push != nil {
		c.push.TokenRefreshed(token)
	}
}

// Close disconnects the socket and stops background work. The stored
// session is kept for the next Initialise.
func (c *Client) Close() {
	for _, unsubscribe := range c.unsubscribe {
		unsubscribe()
	}
	c.unsubscribe = nil
	c.socket.Close()
	if c.push != nil {
		c.push.Close()
	}
}

func (c *Client) ready(operation string) error {
	if c.state.Load() < session.Initialised {
		return &MisuseError{Operation: operation, Reason: "client is not initialised"}
	}
	return nil
}

func (c *Client) sendClickData(ctx context.Context, trackingURL string) error {
	_, err := c.api.SendClickData(ctx, trackingURL)
	return err
}

func (c *Client) registerPushToken(ctx context.Context, token string) error {
	return c.sessions.Execute(ctx, "update push token", func(ctx context.Context, current credstore.SessionData) error {
		_, err := c.api.UpdatePushToken(ctx, current.AccessToken, current.SessionID, c.pushRegistration(token))
		return err
	})
}

func (c *Client) pushRegistration(token string) messaging.PushRegistration {
	return messaging.PushRegistration{Provider: PushProvider, Package: c.config.Push.Package, Token: token}
}
