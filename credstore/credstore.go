// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package credstore persists the active session and the device record.
//
// The session record is replaced wholesale on every creation or
// renewal and survives expiry; only an explicit session end clears it.
// The device record carries the stable device identifier sent on
// session creation and the latest push token.
package credstore

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionData is the credential set for one authenticated session.
type SessionData struct {
	ProfileID   string `cbor:"profile_id" json:"profileId"`
	SessionID   string `cbor:"session_id" json:"sessionId"`
	AccessToken string `cbor:"access_token" json:"accessToken"`

	// ExpiresOn is the expiry in Unix milliseconds.
	ExpiresOn int64 `cbor:"expires_on" json:"expiresOn"`
}

// Valid reports whether the session has a token and has not expired
// at now.
func (s SessionData) Valid(now time.Time) bool {
	return s.AccessToken != "" && now.UnixMilli() < s.ExpiresOn
}

// Expiry returns ExpiresOn as a time.
func (s SessionData) Expiry() time.Time {
	return time.UnixMilli(s.ExpiresOn)
}

// DeviceData identifies this installation to the backend.
type DeviceData struct {
	DeviceID  string `cbor:"device_id"`
	PushToken string `cbor:"push_token,omitempty"`
}

// Store persists session and device records. Implementations must be
// safe for concurrent use and must replace records atomically.
type Store interface {
	// Session returns the stored session, or nil when there is none.
	Session() (*SessionData, error)

	// SetSession replaces the stored session.
	SetSession(session SessionData) error

	// ClearSession removes the stored session.
	ClearSession() error

	// Device returns the stored device record, which may be zero.
	Device() (DeviceData, error)

	// SetDevice replaces the stored device record.
	SetDevice(device DeviceData) error
}

// ErrCorrupt is returned when persisted data cannot be decoded.
var ErrCorrupt = errors.New("credstore: stored credentials are corrupt")

// EnsureDevice returns the device record, assigning and persisting a
// random device ID the first time.
func EnsureDevice(store Store) (DeviceData, error) {
	device, err := store.Device()
	if err != nil {
		return DeviceData{}, err
	}
	if device.DeviceID != "" {
		return device, nil
	}
	device.DeviceID = uuid.NewString()
	if err := store.SetDevice(device); err != nil {
		return DeviceData{}, err
	}
	return device, nil
}
