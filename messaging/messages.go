// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) SendMessage(ctx context.Context, token, conversationID string, message MessageToSend) (*Result[MessageSent], error) {
	return call[MessageSent](ctx, c, "send message", request{
		method: http.MethodPost,
		path:   c.spacePath("conversations", conversationID, "messages"),
		token:  token,
		body:   message,
	})
}

func (c *Client) UpdateMessageStatus(ctx context.Context, token, conversationID string, updates []MessageStatusUpdate) (*Result[Empty], error) {
	return call[Empty](ctx, c, "update message status", request{
		method: http.MethodPost,
		path:   c.spacePath("conversations", conversationID, "messages", "statusupdates"),
		token:  token,
		body:   updates,
	})
}

// QueryMessages returns up to limit messages older than event from. A
// negative from starts at the newest message.
func (c *Client) QueryMessages(ctx context.Context, token, conversationID string, from int64, limit int) (*Result[MessagesPage], error) {
	return call[MessagesPage](ctx, c, "query messages", request{
		method: http.MethodGet,
		path:   c.spacePath("conversations", conversationID, "messages"),
		token:  token,
		query:  pageQuery(from, limit),
	})
}

// QueryEvents returns raw conversation events starting at event from.
// The events package decodes them.
func (c *Client) QueryEvents(ctx context.Context, token, conversationID string, from int64, limit int) (*Result[[]json.RawMessage], error) {
	return call[[]json.RawMessage](ctx, c, "query events", request{
		method: http.MethodGet,
		path:   c.spacePath("conversations", conversationID, "events"),
		token:  token,
		query:  pageQuery(from, limit),
	})
}

// SetTyping tells other participants whether the profile is typing.
func (c *Client) SetTyping(ctx context.Context, token, conversationID string, typing bool) (*Result[Empty], error) {
	method := http.MethodPost
	if !typing {
		method = http.MethodDelete
	}
	return call[Empty](ctx, c, "typing", request{
		method: method,
		path:   c.spacePath("conversations", conversationID, "typing"),
		token:  token,
	})
}

func pageQuery(from int64, limit int) url.Values {
	query := url.Values{}
	if from >= 0 {
		query.Set("from", strconv.FormatInt(from, 10))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return query
}
