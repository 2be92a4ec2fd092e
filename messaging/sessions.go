// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"net/http"
)

// StartSession begins the authentication handshake and returns the
// challenge to answer. Unauthenticated.
func (c *Client) StartSession(ctx context.Context) (*AuthChallenge, error) {
	result, err := call[AuthChallenge](ctx, c, "session start", request{
		method: http.MethodGet,
		path:   c.spacePath("sessions", "start"),
	})
	if err != nil {
		return nil, fmt.Errorf("messaging: session start failed: %w", err)
	}
	if result.Value.AuthenticationID == "" || result.Value.Nonce == "" {
		return nil, &ProtocolError{Op: "session start", Err: fmt.Errorf("missing authenticationId or nonce")}
	}
	return &result.Value, nil
}

// CreateSession exchanges an answered challenge for a session.
// Unauthenticated.
func (c *Client) CreateSession(ctx context.Context, create CreateSessionRequest) (*SessionResponse, error) {
	result, err := call[SessionResponse](ctx, c, "session create", request{
		method: http.MethodPost,
		path:   c.spacePath("sessions"),
		body:   create,
	})
	if err != nil {
		return nil, fmt.Errorf("messaging: session create failed: %w", err)
	}
	if result.Value.Token == "" || result.Value.Session.ID == "" {
		return nil, &ProtocolError{Op: "session create", Err: fmt.Errorf("missing token or session id")}
	}
	c.logger.Info("session created",
		"session_id", result.Value.Session.ID,
		"profile_id", result.Value.Session.ProfileID,
		"expires_on", result.Value.Session.ExpiresOn,
	)
	return &result.Value, nil
}

// EndSession deletes the session on the backend.
func (c *Client) EndSession(ctx context.Context, token, sessionID string) error {
	_, err := call[Empty](ctx, c, "session end", request{
		method: http.MethodDelete,
		path:   c.spacePath("sessions", sessionID),
		token:  token,
	})
	if err != nil {
		return fmt.Errorf("messaging: session end failed: %w", err)
	}
	return nil
}

// UpdatePushToken registers the device push token with the session.
func (c *Client) UpdatePushToken(ctx context.Context, token, sessionID string, registration PushRegistration) (*Result[Empty], error) {
	return call[Empty](ctx, c, "push token update", request{
		method: http.MethodPut,
		path:   c.spacePath("sessions", sessionID, "push"),
		token:  token,
		body:   registration,
	})
}
