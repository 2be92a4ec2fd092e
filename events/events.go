// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package events defines the typed events applications receive: backend
// events pushed over the socket or returned by an event query, and
// local state changes of the session and the socket.
package events

import (
	"encoding/json"
	"time"

	"github.com/bureau-foundation/courier/messaging"
)

// Event is implemented by every event type. Listeners type-switch on
// the concrete type.
type Event interface {
	EventName() string
}

// Backend event names.
const (
	NameMessageSent           = "conversationMessage.sent"
	NameMessageDelivered      = "conversationMessage.delivered"
	NameMessageRead           = "conversationMessage.read"
	NameConversationCreated   = "conversation.create"
	NameConversationUpdated   = "conversation.update"
	NameConversationDeleted   = "conversation.delete"
	NameConversationUndeleted = "conversation.undelete"
	NameParticipantAdded      = "participant.added"
	NameParticipantRemoved    = "participant.removed"
	NameParticipantUpdated    = "participant.updated"
	NameParticipantTyping     = "conversation.participantTyping"
	NameParticipantTypingOff  = "conversation.participantTypingOff"
	NameProfileUpdated        = "profile.update"
)

// Local state event names.
const (
	NameSessionStarted      = "session.started"
	NameSessionStopped      = "session.stopped"
	NameSessionCreateFailed = "session.createFailed"
	NameSocketConnected     = "socket.connected"
	NameSocketDisconnected  = "socket.disconnected"
)

// Envelope is the part common to every backend event.
type Envelope struct {
	EventID string `json:"eventId"`
	Name    string `json:"name"`

	// ConversationEventID orders events within a conversation. Zero
	// for events outside a conversation.
	ConversationEventID int64 `json:"conversationEventId,omitempty"`
}

func (e Envelope) EventName() string { return e.Name }

type MessageSent struct {
	Envelope
	MessageID string
	Metadata  map[string]any
	Context   messaging.MessageContext
	Parts     []messaging.MessagePart
	Alert     *messaging.Alert
}

// MessageStatusChange is the body of delivered and read events.
type MessageStatusChange struct {
	Envelope
	MessageID      string
	ConversationID string
	ProfileID      string
	Timestamp      time.Time
}

type MessageDelivered struct{ MessageStatusChange }

type MessageRead struct{ MessageStatusChange }

// ConversationChange is the body of conversation create and update
// events.
type ConversationChange struct {
	Envelope
	ConversationID string
	Name           string
	Description    string
	Roles          messaging.Roles
	IsPublic       bool
	ETag           string
}

type ConversationCreated struct{ ConversationChange }

type ConversationUpdated struct{ ConversationChange }

// ConversationRemoval is the body of delete and undelete events.
type ConversationRemoval struct {
	Envelope
	ConversationID string
	Date           time.Time
	ETag           string
}

type ConversationDeleted struct{ ConversationRemoval }

type ConversationUndeleted struct{ ConversationRemoval }

// Membership is the body of participant events.
type Membership struct {
	Envelope
	ConversationID string
	ProfileID      string
	Role           string
}

type ParticipantAdded struct{ Membership }

type ParticipantRemoved struct{ Membership }

type ParticipantUpdated struct{ Membership }

// ParticipantTyping reports a participant starting (Typing true) or
// stopping to type.
type ParticipantTyping struct {
	Envelope
	ConversationID string
	ProfileID      string
	Typing         bool
}

type ProfileUpdated struct {
	Envelope
	ProfileID string
	ETag      string
	Profile   map[string]any
}

// Unknown is a backend event this package does not model.
type Unknown struct {
	Envelope
	Payload json.RawMessage
}

// SessionStarted is published when a session becomes active, either
// freshly created or restored from the credential store.
type SessionStarted struct {
	ProfileID string
	SessionID string
	ExpiresOn time.Time
}

func (SessionStarted) EventName() string { return NameSessionStarted }

// SessionStopped is published when the session is ended explicitly.
type SessionStopped struct{}

func (SessionStopped) EventName() string { return NameSessionStopped }

// SessionCreateFailed is published when session creation fails.
type SessionCreateFailed struct{ Err error }

func (SessionCreateFailed) EventName() string { return NameSessionCreateFailed }

type SocketConnected struct{}

func (SocketConnected) EventName() string { return NameSocketConnected }

// SocketDisconnected carries the error that dropped the connection,
// or nil for a requested disconnect.
type SocketDisconnected struct{ Err error }

func (SocketDisconnected) EventName() string { return NameSocketDisconnected }
