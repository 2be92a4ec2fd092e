// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned when an operation needs a stored
	// session and none exists, or none can be created because no
	// authenticator is configured.
	ErrNoSession = errors.New("session: no active session")

	// ErrCreationInProgress is returned by EndSession while a
	// session is being created.
	ErrCreationInProgress = errors.New("session: session creation in progress")
)

// AuthenticationError reports a failed session creation. Every call
// queued behind that creation fails with the same error.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("session: authentication failed: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// AuthExhaustedError reports a call that was still rejected as
// unauthorized after the allowed number of session renewals. Err is
// the last rejection.
type AuthExhaustedError struct {
	Operation string
	Renewals  int
	Err       error
}

func (e *AuthExhaustedError) Error() string {
	return fmt.Sprintf("session: %s still unauthorized after %d renewals: %v", e.Operation, e.Renewals, e.Err)
}

func (e *AuthExhaustedError) Unwrap() error { return e.Err }
