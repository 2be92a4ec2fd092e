// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"net/url"
	"time"

	"github.com/bureau-foundation/courier/credstore"
	"github.com/bureau-foundation/courier/events"
	"github.com/bureau-foundation/courier/messaging"
)

// Service exposes the backend operations. Every authenticated method
// runs through the session controller: it waits for an in-progress
// session creation, creates a session when none is valid, and renews
// and retries on 401.
type Service struct {
	client *Client
}

// call runs fn under the session controller and returns its result.
func call[T any](ctx context.Context, s *Service, name string, fn func(ctx context.Context, current credstore.SessionData) (*messaging.Result[T], error)) (*messaging.Result[T], error) {
	if err := s.client.ready(name); err != nil {
		return nil, err
	}
	var result *messaging.Result[T]
	err := s.client.sessions.Execute(ctx, name, func(ctx context.Context, current credstore.SessionData) error {
		value, err := fn(ctx, current)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StartSession returns the active session, creating one if needed.
func (s *Service) StartSession(ctx context.Context) (credstore.SessionData, error) {
	if err := s.client.ready("start session"); err != nil {
		return credstore.SessionData{}, err
	}
	return s.client.sessions.StartSession(ctx)
}

// EndSession ends the active session and clears stored credentials.
func (s *Service) EndSession(ctx context.Context) error {
	if err := s.client.ready("end session"); err != nil {
		return err
	}
	return s.client.sessions.EndSession(ctx)
}

func (s *Service) SendMessage(ctx context.Context, conversationID string, message messaging.MessageToSend) (*messaging.Result[messaging.MessageSent], error) {
	return call(ctx, s, "send message", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[messaging.MessageSent], error) {
		return s.client.api.SendMessage(ctx, current.AccessToken, conversationID, message)
	})
}

// SendTextMessage sends a single text/plain part.
func (s *Service) SendTextMessage(ctx context.Context, conversationID, text string) (*messaging.Result[messaging.MessageSent], error) {
	return s.SendMessage(ctx, conversationID, messaging.MessageToSend{
		Parts: []messaging.MessagePart{{Name: "body", Type: "text/plain", Data: text, Size: int64(len(text))}},
	})
}

func (s *Service) UploadContent(ctx context.Context, folder string, content messaging.ContentData) (*messaging.Result[messaging.UploadedContent], error) {
	return call(ctx, s, "upload content", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[messaging.UploadedContent], error) {
		return s.client.api.UploadContent(ctx, current.AccessToken, folder, content)
	})
}

func (s *Service) GetProfile(ctx context.Context, profileID string) (*messaging.Result[messaging.Profile], error) {
	return call(ctx, s, "get profile", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[messaging.Profile], error) {
		return s.client.api.GetProfile(ctx, current.AccessToken, profileID)
	})
}

// GetMyProfile fetches the profile of the session's user.
func (s *Service) GetMyProfile(ctx context.Context) (*messaging.Result[messaging.Profile], error) {
	return call(ctx, s, "get my profile", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[messaging.Profile], error) {
		return s.client.api.GetProfile(ctx, current.AccessToken, current.ProfileID)
	})
}

func (s *Service) QueryProfiles(ctx context.Context, query url.Values) (*messaging.Result[[]messaging.Profile], error) {
	return call(ctx, s, "query profiles", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[[]messaging.Profile], error) {
		return s.client.api.QueryProfiles(ctx, current.AccessToken, query)
	})
}

// UpdateProfile replaces a profile. A non-empty eTag makes the update
// conditional.
func (s *Service) UpdateProfile(ctx context.Context, profileID string, profile messaging.Profile, eTag string) (*messaging.Result[messaging.Profile], error) {
	return call(ctx, s, "update profile", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[messaging.Profile], error) {
		return s.client.api.UpdateProfile(ctx, current.AccessToken, profileID, profile, eTag)
	})
}

func (s *Service) PatchProfile(ctx context.Context, profileID string, profile messaging.Profile, eTag string) (*messaging.Result[messaging.Profile], error) {
	return call(ctx, s, "patch profile", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[messaging.Profile], error) {
		return s.client.api.PatchProfile(ctx, current.AccessToken, profileID, profile, eTag)
	})
}

// PatchMyProfile patches the profile of the session's user.
func (s *Service) PatchMyProfile(ctx context.Context, profile messaging.Profile, eTag string) (*messaging.Result[messaging.Profile], error) {
	return call(ctx, s, "patch my profile", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[messaging.Profile], error) {
		return s.client.api.PatchProfile(ctx, current.AccessToken, current.ProfileID, profile, eTag)
	})
}

func (s *Service) CreateConversation(ctx context.Context, create messaging.ConversationCreate) (*messaging.Result[messaging.Conversation], error) {
	return call(ctx, s, "create conversation", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[messaging.Conversation], error) {
		return s.client.api.CreateConversation(ctx, current.AccessToken, create)
	})
}

func (s *Service) GetConversation(ctx context.Context, conversationID string) (*messaging.Result[messaging.Conversation], error) {
	return call(ctx, s, "get conversation", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[messaging.Conversation], error) {
		return s.client.api.GetConversation(ctx, current.AccessToken, conversationID)
	})
}

// GetConversations lists the session user's conversations in scope.
func (s *Service) GetConversations(ctx context.Context, scope messaging.Scope) (*messaging.Result[[]messaging.Conversation], error) {
	return call(ctx, s, "get conversations", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[[]messaging.Conversation], error) {
		return s.client.api.GetConversations(ctx, current.AccessToken, current.ProfileID, scope)
	})
}

func (s *Service) UpdateConversation(ctx context.Context, conversationID string, update messaging.ConversationUpdate, eTag string) (*messaging.Result[messaging.Conversation], error) {
	return call(ctx, s, "update conversation", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[messaging.Conversation], error) {
		return s.client.api.UpdateConversation(ctx, current.AccessToken, conversationID, update, eTag)
	})
}

func (s *Service) DeleteConversation(ctx context.Context, conversationID, eTag string) (*messaging.Result[messaging.Empty], error) {
	return call(ctx, s, "delete conversation", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[messaging.Empty], error) {
		return s.client.api.DeleteConversation(ctx, current.AccessToken, conversationID, eTag)
	})
}

func (s *Service) AddParticipants(ctx context.Context, conversationID string, participants []messaging.Participant) (*messaging.Result[messaging.Empty], error) {
	return call(ctx, s, "add participants", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[messaging.Empty], error) {
		return s.client.api.AddParticipants(ctx, current.AccessToken, conversationID, participants)
	})
}

func (s *Service) RemoveParticipants(ctx context.Context, conversationID string, profileIDs []string) (*messaging.Result[messaging.Empty], error) {
	return call(ctx, s, "remove participants", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[messaging.Empty], error) {
		return s.client.api.RemoveParticipants(ctx, current.AccessToken, conversationID, profileIDs)
	})
}

func (s *Service) GetParticipants(ctx context.Context, conversationID string) (*messaging.Result[[]messaging.Participant], error) {
	return call(ctx, s, "get participants", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[[]messaging.Participant], error) {
		return s.client.api.GetParticipants(ctx, current.AccessToken, conversationID)
	})
}

func (s *Service) UpdateMessageStatus(ctx context.Context, conversationID string, updates []messaging.MessageStatusUpdate) (*messaging.Result[messaging.Empty], error) {
	return call(ctx, s, "update message status", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[messaging.Empty], error) {
		return s.client.api.UpdateMessageStatus(ctx, current.AccessToken, conversationID, updates)
	})
}

// MarkRead marks messages read by the session's user now.
func (s *Service) MarkRead(ctx context.Context, conversationID string, messageIDs ...string) (*messaging.Result[messaging.Empty], error) {
	return s.UpdateMessageStatus(ctx, conversationID, []messaging.MessageStatusUpdate{{
		Status:     messaging.StatusRead,
		MessageIDs: messageIDs,
		Timestamp:  s.client.clock.Now().UTC(),
	}})
}

func (s *Service) UpdatePushMessageStatus(ctx context.Context, messageID, status string, at time.Time) (*messaging.Result[messaging.Empty], error) {
	return call(ctx, s, "update push message status", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[messaging.Empty], error) {
		return s.client.api.UpdatePushMessageStatus(ctx, current.AccessToken, messageID, status, at)
	})
}

// QueryEvents returns decoded conversation events starting at from.
// A negative from starts at the latest event.
func (s *Service) QueryEvents(ctx context.Context, conversationID string, from int64, limit int) (*messaging.Result[[]events.Event], error) {
	return call(ctx, s, "query events", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[[]events.Event], error) {
		raw, err := s.client.api.QueryEvents(ctx, current.AccessToken, conversationID, from, limit)
		if err != nil {
			return nil, err
		}
		decoded, err := events.ParseList(raw.Value)
		if err != nil {
			return nil, &messaging.ProtocolError{Op: "query events", Err: err}
		}
		return &messaging.Result[[]events.Event]{Value: decoded, StatusCode: raw.StatusCode, ETag: raw.ETag}, nil
	})
}

// QueryMessages returns one page of messages with the orphaned status
// events for older messages. A negative from starts at the latest.
func (s *Service) QueryMessages(ctx context.Context, conversationID string, from int64, limit int) (*messaging.Result[messaging.MessagesPage], error) {
	return call(ctx, s, "query messages", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[messaging.MessagesPage], error) {
		return s.client.api.QueryMessages(ctx, current.AccessToken, conversationID, from, limit)
	})
}

// IsTyping tells the conversation the user started or stopped typing.
func (s *Service) IsTyping(ctx context.Context, conversationID string, typing bool) (*messaging.Result[messaging.Empty], error) {
	return call(ctx, s, "set typing", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[messaging.Empty], error) {
		return s.client.api.SetTyping(ctx, current.AccessToken, conversationID, typing)
	})
}

// CreateFbOptInState returns the opaque state for the Facebook
// Messenger opt-in plugin.
func (s *Service) CreateFbOptInState(ctx context.Context) (*messaging.Result[string], error) {
	return call(ctx, s, "create facebook state", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[string], error) {
		return s.client.api.CreateFbOptInState(ctx, current.AccessToken)
	})
}

// UpdatePushToken registers token against the active session.
func (s *Service) UpdatePushToken(ctx context.Context, token string) (*messaging.Result[messaging.Empty], error) {
	return call(ctx, s, "update push token", func(ctx context.Context, current credstore.SessionData) (*messaging.Result[messaging.Empty], error) {
		return s.client.api.UpdatePushToken(ctx, current.AccessToken, current.SessionID, s.client.pushRegistration(token))
	})
}

// SendClickData records a push click at trackingURL. It needs no
// session.
func (s *Service) SendClickData(ctx context.Context, trackingURL string) (*messaging.Result[messaging.Empty], error) {
	if err := s.client.ready("send click data"); err != nil {
		return nil, err
	}
	return s.client.api.SendClickData(ctx, trackingURL)
}
