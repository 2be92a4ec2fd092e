// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package push

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/courier/credstore"
	"github.com/bureau-foundation/courier/events"
)

// TokenProvider returns the platform's push token.
type TokenProvider interface {
	PushToken(ctx context.Context) (string, error)
}

// TokenProviderFunc adapts a function to TokenProvider.
type TokenProviderFunc func(ctx context.Context) (string, error)

func (f TokenProviderFunc) PushToken(ctx context.Context) (string, error) { return f(ctx) }

// Registrar registers a push token against the current session.
type Registrar interface {
	RegisterPushToken(ctx context.Context, token string) error
}

// RegistrarFunc adapts a function to Registrar.
type RegistrarFunc func(ctx context.Context, token string) error

func (f RegistrarFunc) RegisterPushToken(ctx context.Context, token string) error { return f(ctx, token) }

// ManagerConfig holds the dependencies of a Manager.
type ManagerConfig struct {
	Provider  TokenProvider
	Registrar Registrar
	Store     credstore.Store
	Logger    *slog.Logger
}

// Manager registers the push token with the backend whenever a session
// starts and whenever the platform refreshes the token. Registration
// runs in the background; failures are logged.
type Manager struct {
	provider  TokenProvider
	registrar Registrar
	store     credstore.Store
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(config ManagerConfig) (*Manager, error) {
	if config.Provider == nil {
		return nil, fmt.Errorf("push: Provider is required")
	}
	if config.Registrar == nil {
		return nil, fmt.Errorf("push: Registrar is required")
	}
	if config.Store == nil {
		return nil, fmt.Errorf("push: Store is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		provider:  config.Provider,
		registrar: config.Registrar,
		store:     config.Store,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// OnEvent starts a registration for every started session.
func (m *Manager) OnEvent(event events.Event) {
	if started, ok := event.(events.SessionStarted); ok {
		m.spawn(func(ctx context.Context) {
			token, err := m.provider.PushToken(ctx)
			if err != nil {
				m.logger.Warn("push token unavailable", "session_id", started.SessionID, "error", err)
				return
			}
			m.register(ctx, token)
		})
	}
}

// TokenRefreshed stores and registers a token the platform rotated.
func (m *Manager) TokenRefreshed(token string) {
	m.spawn(func(ctx context.Context) { m.register(ctx, token) })
}

// Wait blocks until background registrations finish.
func (m *Manager) Wait() { m.wg.Wait() }

// Close abandons in-flight registrations and waits for them to return.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) spawn(run func(ctx context.Context)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		run(m.ctx)
	}()
}

func (m *Manager) register(ctx context.Context, token string) {
	if token == "" {
		m.logger.Debug("no push token to register")
		return
	}
	device, err := credstore.EnsureDevice(m.store)
	if err != nil {
		m.logger.Error("loading device record", "error", err)
		return
	}
	if device.PushToken != token {
		device.PushToken = token
		if err := m.store.SetDevice(device); err != nil {
			m.logger.Error("storing push token", "error", err)
			return
		}
	}
	if err := m.registrar.RegisterPushToken(ctx, token); err != nil {
		m.logger.Warn("push token registration failed", "error", err)
		return
	}
	m.logger.Info("push token registered", "device_id", device.DeviceID)
}
