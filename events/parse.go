// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bureau-foundation/courier/messaging"
)

type frame struct {
	Envelope
	Payload json.RawMessage `json:"payload"`
}

type statusPayload struct {
	MessageID      string    `json:"messageId"`
	ConversationID string    `json:"conversationId"`
	ProfileID      string    `json:"profileId"`
	Timestamp      time.Time `json:"timestamp"`
}

type messagePayload struct {
	MessageID string                   `json:"messageId"`
	Metadata  map[string]any           `json:"metadata"`
	Context   messaging.MessageContext `json:"context"`
	Parts     []messaging.MessagePart  `json:"parts"`
	Alert     *messaging.Alert         `json:"alert"`
}

type conversationPayload struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Roles       messaging.Roles `json:"roles"`
	IsPublic    bool            `json:"isPublic"`
	ETag        string          `json:"eTag"`
}

type removalPayload struct {
	ID   string    `json:"id"`
	Date time.Time `json:"date"`
	ETag string    `json:"eTag"`
}

type membershipPayload struct {
	ConversationID string `json:"conversationId"`
	ProfileID      string `json:"profileId"`
	Role           string `json:"role"`
}

type profilePayload struct {
	ID      string         `json:"id"`
	ETag    string         `json:"eTag"`
	Profile map[string]any `json:"payload"`
}

// Parse decodes one backend event. Names this package does not model
// decode to *Unknown.
func Parse(data []byte) (Event, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("events: decoding envelope: %w", err)
	}
	if f.Name == "" {
		return nil, fmt.Errorf("events: event has no name")
	}
	event, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("events: decoding %s payload: %w", f.Name, err)
	}
	return event, nil
}

// ParseList decodes a list of backend events, as returned by an event
// query. It fails on the first malformed event.
func ParseList(items []json.RawMessage) ([]Event, error) {
	decoded := make([]Event, 0, len(items))
	for index, item := range items {
		event, err := Parse(item)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", index, err)
		}
		decoded = append(decoded, event)
	}
	return decoded, nil
}

func decode(f frame) (Event, error) {
	switch f.Name {
	case NameMessageSent:
		var p messagePayload
		if err := unmarshalPayload(f.Payload, &p); err != nil {
			return nil, err
		}
		return &MessageSent{
			Envelope:  f.Envelope,
			MessageID: p.MessageID,
			Metadata:  p.Metadata,
			Context:   p.Context,
			Parts:     p.Parts,
			Alert:     p.Alert,
		}, nil

	case NameMessageDelivered, NameMessageRead:
		var p statusPayload
		if err := unmarshalPayload(f.Payload, &p); err != nil {
			return nil, err
		}
		change := MessageStatusChange{
			Envelope:       f.Envelope,
			MessageID:      p.MessageID,
			ConversationID: p.ConversationID,
			ProfileID:      p.ProfileID,
			Timestamp:      p.Timestamp,
		}
		if f.Name == NameMessageDelivered {
			return &MessageDelivered{change}, nil
		}
		return &MessageRead{change}, nil

	case NameConversationCreated, NameConversationUpdated:
		var p conversationPayload
		if err := unmarshalPayload(f.Payload, &p); err != nil {
			return nil, err
		}
		change := ConversationChange{
			Envelope:       f.Envelope,
			ConversationID: p.ID,
			Name:           p.Name,
			Description:    p.Description,
			Roles:          p.Roles,
			IsPublic:       p.IsPublic,
			ETag:           p.ETag,
		}
		if f.Name == NameConversationCreated {
			return &ConversationCreated{change}, nil
		}
		return &ConversationUpdated{change}, nil

	case NameConversationDeleted, NameConversationUndeleted:
		var p removalPayload
		if err := unmarshalPayload(f.Payload, &p); err != nil {
			return nil, err
		}
		removal := ConversationRemoval{Envelope: f.Envelope, ConversationID: p.ID, Date: p.Date, ETag: p.ETag}
		if f.Name == NameConversationDeleted {
			return &ConversationDeleted{removal}, nil
		}
		return &ConversationUndeleted{removal}, nil

	case NameParticipantAdded, NameParticipantRemoved, NameParticipantUpdated:
		var p membershipPayload
		if err := unmarshalPayload(f.Payload, &p); err != nil {
			return nil, err
		}
		membership := Membership{Envelope: f.Envelope, ConversationID: p.ConversationID, ProfileID: p.ProfileID, Role: p.Role}
		switch f.Name {
		case NameParticipantAdded:
			return &ParticipantAdded{membership}, nil
		case NameParticipantRemoved:
			return &ParticipantRemoved{membership}, nil
		default:
			return &ParticipantUpdated{membership}, nil
		}

	case NameParticipantTyping, NameParticipantTypingOff:
		var p membershipPayload
		if err := unmarshalPayload(f.Payload, &p); err != nil {
			return nil, err
		}
		return &ParticipantTyping{
			Envelope:       f.Envelope,
			ConversationID: p.ConversationID,
			ProfileID:      p.ProfileID,
			Typing:         f.Name == NameParticipantTyping,
		}, nil

	case NameProfileUpdated:
		var p profilePayload
		if err := unmarshalPayload(f.Payload, &p); err != nil {
			return nil, err
		}
		return &ProfileUpdated{Envelope: f.Envelope, ProfileID: p.ID, ETag: p.ETag, Profile: p.Profile}, nil
	}
	return &Unknown{Envelope: f.Envelope, Payload: f.Payload}, nil
}

func unmarshalPayload(raw json.RawMessage, target any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload")
	}
	return json.Unmarshal(raw, target)
}
