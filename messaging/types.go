// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"
	"time"
)

// AuthChallenge is the backend's answer to session start: the nonce
// the application's identity provider must embed in its token.
type AuthChallenge struct {
	AuthenticationID string    `json:"authenticationId"`
	Provider         string    `json:"provider"`
	Nonce            string    `json:"nonce"`
	ExpiresOn        time.Time `json:"expiresOn"`
}

// CreateSessionRequest exchanges an answered challenge for a session.
type CreateSessionRequest struct {
	AuthenticationID    string `json:"authenticationId"`
	AuthenticationToken string `json:"authenticationToken"`
	DeviceID            string `json:"deviceId"`
	Platform            string `json:"platform"`
	PlatformVersion     string `json:"platformVersion"`
	SDKType             string `json:"sdkType"`
	SDKVersion          string `json:"sdkVersion"`
}

// SessionResponse is the created session and its bearer token.
type SessionResponse struct {
	Token   string         `json:"token"`
	Session SessionDetails `json:"session"`
}

// SessionDetails describes a session as the backend sees it.
type SessionDetails struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profileId"`
	DeviceID  string    `json:"deviceId"`
	Platform  string    `json:"platform"`
	ExpiresOn time.Time `json:"expiresOn"`
	IsActive  bool      `json:"isActive"`
}

// PushRegistration registers a push token against a session.
type PushRegistration struct {
	Provider string `json:"provider"`
	Package  string `json:"package,omitempty"`
	Token    string `json:"token"`
}

// Profile is a free-form profile document.
type Profile map[string]any

// RoleAttributes are the permissions of one conversation role.
type RoleAttributes struct {
	CanSend               bool `json:"canSend"`
	CanAddParticipants    bool `json:"canAddParticipants"`
	CanRemoveParticipants bool `json:"canRemoveParticipants"`
}

// Roles holds the permissions of owners and participants.
type Roles struct {
	Owner       RoleAttributes `json:"owner"`
	Participant RoleAttributes `json:"participant"`
}

// Participant is a conversation member.
type Participant struct {
	ID   string `json:"id"`
	Role string `json:"role,omitempty"`
}

// Participant roles.
const (
	RoleOwner       = "owner"
	RoleParticipant = "participant"
)

// ConversationCreate is the body of a conversation create call.
type ConversationCreate struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Roles        *Roles        `json:"roles,omitempty"`
	IsPublic     bool          `json:"isPublic"`
	Participants []Participant `json:"participants,omitempty"`
}

// ConversationUpdate is the body of a conversation update call.
type ConversationUpdate struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Roles       *Roles `json:"roles,omitempty"`
	IsPublic    *bool  `json:"isPublic,omitempty"`
}

// Conversation is a conversation as returned by the backend.
type Conversation struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Roles             Roles  `json:"roles"`
	IsPublic          bool   `json:"isPublic"`
	ParticipantCount  int    `json:"participantCount"`
	LatestSentEventID int64  `json:"latestSentEventId"`
}

// Scope filters conversation listings.
type Scope string

const (
	ScopeParticipant Scope = "participant"
	ScopePublic      Scope = "public"
)

// Sender identifies the author of a message.
type Sender struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// MessagePart is one content part of a message.
type MessagePart struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
	URL  string `json:"url,omitempty"`
	Data string `json:"data,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// Alert carries per-platform push payloads for a sent message.
type Alert struct {
	Platforms map[string]json.RawMessage `json:"platforms,omitempty"`
}

// MessageToSend is the body of a send call.
type MessageToSend struct {
	Metadata map[string]any `json:"metadata,omitempty"`
	Parts    []MessagePart  `json:"parts,omitempty"`
	Alert    *Alert         `json:"alert,omitempty"`
}

// MessageSent acknowledges a sent message.
type MessageSent struct {
	ID      string `json:"id"`
	EventID int64  `json:"eventId"`
}

// MessageContext places a received message in its conversation.
type MessageContext struct {
	ConversationID string    `json:"conversationId"`
	From           Sender    `json:"from"`
	SentBy         string    `json:"sentBy"`
	SentOn         time.Time `json:"sentOn"`
}

// MessageStatus is one profile's status for a message.
type MessageStatus struct {
	Status string    `json:"status"`
	On     time.Time `json:"on"`
}

// MessageReceived is a message returned by a query.
type MessageReceived struct {
	ID            string                   `json:"id"`
	SentEventID   int64                    `json:"sentEventId"`
	Metadata      map[string]any           `json:"metadata,omitempty"`
	Parts         []MessagePart            `json:"parts"`
	Context       MessageContext           `json:"context"`
	StatusUpdates map[string]MessageStatus `json:"statusUpdates,omitempty"`
}

// Message status values.
const (
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// MessageStatusUpdate marks messages delivered or read.
type MessageStatusUpdate struct {
	Status     string    `json:"status"`
	MessageIDs []string  `json:"messageIds"`
	Timestamp  time.Time `json:"timestamp"`
}

// OrphanedEvent is a status change for a message older than the page
// a query returned. Apply it to messages held from earlier pages.
type OrphanedEvent struct {
	ID   int64             `json:"id"`
	Data OrphanedEventData `json:"data"`
}

// OrphanedEventData is the body of an orphaned event.
type OrphanedEventData struct {
	Name      string          `json:"name"`
	EventID   string          `json:"eventId"`
	ProfileID string          `json:"profileId"`
	Payload   OrphanedPayload `json:"payload"`
}

// OrphanedPayload identifies the message whose status changed.
type OrphanedPayload struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
	ProfileID      string `json:"profileId"`
	Timestamp      string `json:"timestamp"`
}

// IsDelivered reports whether the event marks a message delivered.
func (e OrphanedEvent) IsDelivered() bool { return e.Data.Name == StatusDelivered }

// IsRead reports whether the event marks a message read.
func (e OrphanedEvent) IsRead() bool { return e.Data.Name == StatusRead }

// MessagesPage is one page of a message query.
type MessagesPage struct {
	LatestEventID   int64             `json:"latestEventId"`
	EarliestEventID int64             `json:"earliestEventId"`
	Messages        []MessageReceived `json:"messages"`
	OrphanedEvents  []OrphanedEvent   `json:"orphanedEvents"`
}

// ContentData is a file to upload.
type ContentData struct {
	Name string
	Type string
	Body []byte
}

// UploadedContent describes stored content.
type UploadedContent struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Size   int64  `json:"size"`
	Folder string `json:"folder"`
	URL    string `json:"url"`
}

// PushMessageStatus reports the fate of a delivered push message.
type PushMessageStatus struct {
	MessageID string    `json:"messageId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
