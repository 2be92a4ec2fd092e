// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// UploadContent stores a file in folder and returns its public URL.
func (c *Client) UploadContent(ctx context.Context, token, folder string, content ContentData) (*Result[UploadedContent], error) {
	if content.Type == "" {
		return nil, fmt.Errorf("messaging: content type is required")
	}
	query := url.Values{}
	if folder != "" {
		query.Set("folder", folder)
	}
	if content.Name != "" {
		query.Set("name", content.Name)
	}
	return call[UploadedContent](ctx, c, "upload content", request{
		method:      http.MethodPost,
		path:        c.spacePath("content"),
		token:       token,
		query:       query,
		raw:         bytes.NewReader(content.Body),
		contentType: content.Type,
	})
}

// CreateFbOptInState returns the signed state the Facebook channel
// needs to opt the profile in.
func (c *Client) CreateFbOptInState(ctx context.Context, token string) (*Result[string], error) {
	return call[string](ctx, c, "facebook opt-in state", request{
		method: http.MethodPost,
		path:   c.spacePath("channels", "facebook", "state"),
		token:  token,
	})
}

// UpdatePushMessageStatus reports that a push message was delivered or
// opened.
func (c *Client) UpdatePushMessageStatus(ctx context.Context, token, messageID, status string, at time.Time) (*Result[Empty], error) {
	return call[Empty](ctx, c, "push message status", request{
		method: http.MethodPost,
		path:   c.spacePath("push", messageID, "statusupdates"),
		token:  token,
		body:   PushMessageStatus{MessageID: messageID, Status: status, Timestamp: at},
	})
}

// SendClickData records a push notification click by requesting the
// tracking URL carried in the push payload. Unauthenticated.
func (c *Client) SendClickData(ctx context.Context, trackingURL string) (*Result[Empty], error) {
	parsed, err := url.Parse(trackingURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("messaging: invalid tracking URL %q", trackingURL)
	}
	return call[Empty](ctx, c, "click tracking", request{
		method:   http.MethodGet,
		path:     trackingURL,
		absolute: true,
	})
}
