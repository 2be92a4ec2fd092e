// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle defines how the host platform reports foreground,
// background and network changes to the SDK.
//
// The host passes a Scope with each transition. Components may use the
// scope to register for network changes while foregrounded and must
// release that registration on Backgrounded; a scope is never retained
// past the transition that supplied it.
package lifecycle

import (
	"log/slog"

	"github.com/bureau-foundation/courier/lib/fanout"
)

// NetworkListener is notified about connectivity changes.
type NetworkListener interface {
	OnNetworkActive()
	OnNetworkUnavailable()
}

// Scope is the platform handle supplied with a lifecycle transition.
type Scope interface {
	// RegisterNetworkListener starts delivering connectivity changes
	// to listener. The returned function stops delivery.
	RegisterNetworkListener(listener NetworkListener) (unregister func())
}

// Listener is notified about foreground and background transitions.
type Listener interface {
	Foregrounded(scope Scope)
	Backgrounded(scope Scope)
}

// Fanout delivers transitions to every added listener in order.
type Fanout struct {
	listeners fanout.List[Listener]
	logger    *slog.Logger
}

// NewFanout returns an empty Fanout. A nil logger uses slog.Default().
func NewFanout(logger *slog.Logger) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{logger: logger}
}

// Add registers listener and returns a function that removes it.
func (f *Fanout) Add(listener Listener) (remove func()) {
	return f.listeners.Add(listener)
}

func (f *Fanout) Foregrounded(scope Scope) {
	f.logger.Debug("application foregrounded", "listeners", f.listeners.Len())
	f.listeners.Each(func(listener Listener) { listener.Foregrounded(scope) })
}

func (f *Fanout) Backgrounded(scope Scope) {
	f.logger.Debug("application backgrounded", "listeners", f.listeners.Len())
	f.listeners.Each(func(listener Listener) { listener.Backgrounded(scope) })
}

// StaticScope is a Scope for hosts that observe the network
// themselves and report changes through Notify.
type StaticScope struct {
	listeners fanout.List[NetworkListener]
}

func (s *StaticScope) RegisterNetworkListener(listener NetworkListener) func() {
	return s.listeners.Add(listener)
}

// Notify reports a connectivity change to every registered listener.
func (s *StaticScope) Notify(active bool) {
	s.listeners.Each(func(listener NetworkListener) {
		if active {
			listener.OnNetworkActive()
		} else {
			listener.OnNetworkUnavailable()
		}
	})
}

// Registered reports the number of registered network listeners.
func (s *StaticScope) Registered() int { return s.listeners.Len() }
