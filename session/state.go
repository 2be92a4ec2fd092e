// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"
	"slices"
	"sync/atomic"
)

// GlobalState is the SDK-wide lifecycle state.
type GlobalState int32

const (
	NotInitialised GlobalState = iota
	Initialising
	Initialised
	SessionActive
	SessionOff
)

func (s GlobalState) String() string {
	switch s {
	case NotInitialised:
		return "not-initialised"
	case Initialising:
		return "initialising"
	case Initialised:
		return "initialised"
	case SessionActive:
		return "session-active"
	case SessionOff:
		return "session-off"
	default:
		return fmt.Sprintf("GlobalState(%d)", int32(s))
	}
}

// StateHolder holds a GlobalState shared by the client, the session
// controller and the socket. The zero value holds NotInitialised.
type StateHolder struct {
	value atomic.Int32
}

func (h *StateHolder) Load() GlobalState { return GlobalState(h.value.Load()) }

func (h *StateHolder) Store(state GlobalState) { h.value.Store(int32(state)) }

// CompareAndSwap sets the state to next only if it is currently old.
func (h *StateHolder) CompareAndSwap(old, next GlobalState) bool {
	return h.value.CompareAndSwap(int32(old), int32(next))
}

// Transition sets the state to next if it is currently one of from and
// reports whether it did.
func (h *StateHolder) Transition(next GlobalState, from ...GlobalState) bool {
	for {
		current := h.Load()
		if !slices.Contains(from, current) {
			return false
		}
		if h.CompareAndSwap(current, next) {
			return true
		}
	}
}

// Phase is the session state derived from the stored credentials and
// the coordinator.
type Phase int

const (
	NoSession Phase = iota
	Creating
	Active
	Expired
)

func (p Phase) String() string {
	switch p {
	case NoSession:
		return "no-session"
	case Creating:
		return "creating"
	case Active:
		return "active"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}
