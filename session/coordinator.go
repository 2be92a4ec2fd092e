// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import "sync/atomic"

// Coordinator admits at most one session creation at a time. Callers
// that lose TryEnter perform no I/O; they queue behind the winner.
type Coordinator struct {
	busy atomic.Bool
}

// TryEnter claims the creation slot. It returns false if another
// creation holds it.
func (c *Coordinator) TryEnter() bool { return c.busy.CompareAndSwap(false, true) }

// Exit releases the creation slot. Every successful TryEnter must be
// paired with exactly one Exit.
func (c *Coordinator) Exit() { c.busy.Store(false) }

// InProgress reports whether a creation holds the slot.
func (c *Coordinator) InProgress() bool { return c.busy.Load() }
