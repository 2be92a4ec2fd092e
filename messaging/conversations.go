// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) CreateConversation(ctx context.Context, token string, create ConversationCreate) (*Result[Conversation], error) {
	return call[Conversation](ctx, c, "create conversation", request{
		method: http.MethodPost,
		path:   c.spacePath("conversations"),
		token:  token,
		body:   create,
	})
}

func (c *Client) GetConversation(ctx context.Context, token, conversationID string) (*Result[Conversation], error) {
	return call[Conversation](ctx, c, "get conversation", request{
		method: http.MethodGet,
		path:   c.spacePath("conversations", conversationID),
		token:  token,
	})
}

// GetConversations lists the conversations of profileID visible in
// scope. An empty scope lists participant conversations.
func (c *Client) GetConversations(ctx context.Context, token, profileID string, scope Scope) (*Result[[]Conversation], error) {
	if scope == "" {
		scope = ScopeParticipant
	}
	query := url.Values{"scope": {string(scope)}}
	if profileID != "" {
		query.Set("profileId", profileID)
	}
	return call[[]Conversation](ctx, c, "get conversations", request{
		method: http.MethodGet,
		path:   c.spacePath("conversations"),
		token:  token,
		query:  query,
	})
}

func (c *Client) UpdateConversation(ctx context.Context, token, conversationID string, update ConversationUpdate, eTag string) (*Result[Conversation], error) {
	return call[Conversation](ctx, c, "update conversation", request{
		method:  http.MethodPut,
		path:    c.spacePath("conversations", conversationID),
		token:   token,
		body:    update,
		ifMatch: eTag,
	})
}

func (c *Client) DeleteConversation(ctx context.Context, token, conversationID, eTag string) (*Result[Empty], error) {
	return call[Empty](ctx, c, "delete conversation", request{
		method:  http.MethodDelete,
		path:    c.spacePath("conversations", conversationID),
		token:   token,
		ifMatch: eTag,
	})
}

func (c *Client) AddParticipants(ctx context.Context, token, conversationID string, participants []Participant) (*Result[Empty], error) {
	return call[Empty](ctx, c, "add participants", request{
		method: http.MethodPost,
		path:   c.spacePath("conversations", conversationID, "participants"),
		token:  token,
		body:   participants,
	})
}

func (c *Client) RemoveParticipants(ctx context.Context, token, conversationID string, profileIDs []string) (*Result[Empty], error) {
	return call[Empty](ctx, c, "remove participants", request{
		method: http.MethodDelete,
		path:   c.spacePath("conversations", conversationID, "participants"),
		token:  token,
		query:  url.Values{"id": profileIDs},
	})
}

func (c *Client) GetParticipants(ctx context.Context, token, conversationID string) (*Result[[]Participant], error) {
	return call[[]Participant](ctx, c, "get participants", request{
		method: http.MethodGet,
		path:   c.spacePath("conversations", conversationID, "participants"),
		token:  token,
	})
}
