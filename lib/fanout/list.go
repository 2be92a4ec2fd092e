// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fanout provides a copy-on-write listener list. Readers take
// an immutable snapshot without locking, so listeners may be added or
// removed while a dispatch is iterating.
package fanout

import (
	"sync"
	"sync/atomic"
)

// List is a set of listeners of type T. The zero value is ready to use.
type List[T any] struct {
	mu       sync.Mutex
	nextID   uint64
	snapshot atomic.Pointer[[]entry[T]]
}

type entry[T any] struct {
	id       uint64
	listener T
}

// Add registers listener and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (l *List[T]) Add(listener T) (remove func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	id := l.nextID
	current := l.load()
	next := make([]entry[T], len(current), len(current)+1)
	copy(next, current)
	next = append(next, entry[T]{id: id, listener: listener})
	l.snapshot.Store(&next)

	var once sync.Once
	return func() { once.Do(func() { l.remove(id) }) }
}

// Snapshot returns the listeners registered at the time of the call,
// in registration order. The slice must not be modified.
func (l *List[T]) Snapshot() []T {
	current := l.load()
	listeners := make([]T, len(current))
	for i, e := range current {
		listeners[i] = e.listener
	}
	return listeners
}

// Len returns the number of registered listeners.
func (l *List[T]) Len() int { return len(l.load()) }

// Each calls fn for every listener in the current snapshot.
func (l *List[T]) Each(fn func(T)) {
	for _, e := range l.load() {
		fn(e.listener)
	}
}

func (l *List[T]) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	current := l.load()
	next := make([]entry[T], 0, len(current))
	for _, e := range current {
		if e.id != id {
			next = append(next, e)
		}
	}
	l.snapshot.Store(&next)
}

func (l *List[T]) load() []entry[T] {
	if current := l.snapshot.Load(); current != nil {
		return *current
	}
	return nil
}
