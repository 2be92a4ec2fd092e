// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package credstore

import "sync"

// Memory is a Store that keeps records in process memory.
type Memory struct {
	mu      sync.RWMutex
	session *SessionData
	device  DeviceData
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Session() (*SessionData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil, nil
	}
	session := *m.session
	return &session, nil
}

func (m *Memory) SetSession(session SessionData) error {
	m.mu.Lock()
	m.session = &session
	m.mu.Unlock()
	return nil
}

func (m *Memory) ClearSession() error {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
	return nil
}

func (m *Memory) Device() (DeviceData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.device, nil
}

func (m *Memory) SetDevice(device DeviceData) error {
	m.mu.Lock()
	m.device = device
	m.mu.Unlock()
	return nil
}
