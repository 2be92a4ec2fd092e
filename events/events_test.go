// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseMessageSent(t *testing.T) {
	event, err := Parse([]byte(`{
		"eventId": "e1",
		"name": "conversationMessage.sent",
		"conversationEventId": 7,
		"payload": {
			"messageId": "m1",
			"metadata": {"key": "value"},
			"context": {
				"conversationId": "c1",
				"from": {"id": "alice", "name": "Alice"},
				"sentBy": "alice",
				"sentOn": "2026-02-01T10:00:00Z"
			},
			"parts": [{"name": "body", "type": "text/plain", "data": "hello"}],
			"alert": {"platforms": {"fcm": {"notification": {"title": "hi"}}}}
		}
	}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	sent, ok := event.(*MessageSent)
	if !ok {
		t.Fatalf("Parse returned %T, want *MessageSent", event)
	}
	if sent.EventID != "e1" || sent.ConversationEventID != 7 || sent.MessageID != "m1" {
		t.Errorf("envelope = %+v, message id %q", sent.Envelope, sent.MessageID)
	}
	if sent.Context.From.Name != "Alice" || sent.Context.ConversationID != "c1" {
		t.Errorf("context = %+v", sent.Context)
	}
	if len(sent.Parts) != 1 || sent.Parts[0].Data != "hello" {
		t.Errorf("parts = %+v", sent.Parts)
	}
	if sent.Metadata["key"] != "value" {
		t.Errorf("metadata = %v", sent.Metadata)
	}
	if _, ok := sent.Alert.Platforms["fcm"]; !ok {
		t.Errorf("alert platforms = %v", sent.Alert.Platforms)
	}
	if sent.EventName() != NameMessageSent {
		t.Errorf("EventName() = %q", sent.EventName())
	}
}

func TestParseStatusEvents(t *testing.T) {
	for _, test := range []struct {
		name string
		want string
	}{
		{NameMessageDelivered, "delivered"},
		{NameMessageRead, "read"},
	} {
		t.Run(test.want, func(t *testing.T) {
			event, err := Parse([]byte(`{"eventId":"e2","name":"` + test.name + `","payload":{"messageId":"m1","conversationId":"c1","profileId":"bob","timestamp":"2026-02-01T10:00:01Z"}}`))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			var change MessageStatusChange
			switch typed := event.(type) {
			case *MessageDelivered:
				if test.want != "delivered" {
					t.Fatalf("got delivered for %s", test.name)
				}
				change = typed.MessageStatusChange
			case *MessageRead:
				if test.want != "read" {
					t.Fatalf("got read for %s", test.name)
				}
				change = typed.MessageStatusChange
			default:
				t.Fatalf("Parse returned %T", event)
			}
			if change.ProfileID != "bob" || !change.Timestamp.Equal(time.Date(2026, 2, 1, 10, 0, 1, 0, time.UTC)) {
				t.Errorf("change = %+v", change)
			}
		})
	}
}

func TestParseConversationAndParticipantEvents(t *testing.T) {
	tests := []struct {
		frame string
		check func(t *testing.T, event Event)
	}{
		{
			`{"eventId":"a","name":"conversation.create","payload":{"id":"c1","name":"Team","isPublic":true,"roles":{"owner":{"canSend":true}}}}`,
			func(t *testing.T, event Event) {
				created := event.(*ConversationCreated)
				if created.ConversationID != "c1" || !created.IsPublic || !created.Roles.Owner.CanSend {
					t.Errorf("created = %+v", created)
				}
			},
		},
		{
			`{"eventId":"b","name":"conversation.update","payload":{"id":"c1","name":"Renamed","eTag":"v2"}}`,
			func(t *testing.T, event Event) {
				if updated := event.(*ConversationUpdated); updated.Name != "Renamed" || updated.ETag != "v2" {
					t.Errorf("updated = %+v", updated)
				}
			},
		},
		{
			`{"eventId":"c","name":"conversation.delete","payload":{"id":"c1","date":"2026-02-01T00:00:00Z"}}`,
			func(t *testing.T, event Event) {
				if deleted := event.(*ConversationDeleted); deleted.ConversationID != "c1" {
					t.Errorf("deleted = %+v", deleted)
				}
			},
		},
		{
			`{"eventId":"d","name":"conversation.undelete","payload":{"id":"c1"}}`,
			func(t *testing.T, event Event) {
				if _, ok := event.(*ConversationUndeleted); !ok {
					t.Errorf("got %T", event)
				}
			},
		},
		{
			`{"eventId":"e","name":"participant.added","payload":{"conversationId":"c1","profileId":"bob","role":"participant"}}`,
			func(t *testing.T, event Event) {
				if added := event.(*ParticipantAdded); added.ProfileID != "bob" || added.Role != "participant" {
					t.Errorf("added = %+v", added)
				}
			},
		},
		{
			`{"eventId":"f","name":"participant.removed","payload":{"conversationId":"c1","profileId":"bob"}}`,
			func(t *testing.T, event Event) {
				if _, ok := event.(*ParticipantRemoved); !ok {
					t.Errorf("got %T", event)
				}
			},
		},
		{
			`{"eventId":"g","name":"participant.updated","payload":{"conversationId":"c1","profileId":"bob","role":"owner"}}`,
			func(t *testing.T, event Event) {
				if updated := event.(*ParticipantUpdated); updated.Role != "owner" {
					t.Errorf("updated = %+v", updated)
				}
			},
		},
		{
			`{"eventId":"h","name":"conversation.participantTypingOff","payload":{"conversationId":"c1","profileId":"bob"}}`,
			func(t *testing.T, event Event) {
				if typing := event.(*ParticipantTyping); typing.Typing {
					t.Errorf("typing-off decoded as typing: %+v", typing)
				}
			},
		},
		{
			`{"eventId":"i","name":"profile.update","payload":{"id":"alice","eTag":"p3","payload":{"email":"a@example.com"}}}`,
			func(t *testing.T, event Event) {
				if profile := event.(*ProfileUpdated); profile.Profile["email"] != "a@example.com" {
					t.Errorf("profile = %+v", profile)
				}
			},
		},
	}
	for _, test := range tests {
		event, err := Parse([]byte(test.frame))
		if err != nil {
			t.Fatalf("Parse(%s) failed: %v", test.frame, err)
		}
		test.check(t, event)
	}
}

func TestParseUnknownAndMalformed(t *testing.T) {
	event, err := Parse([]byte(`{"eventId":"x","name":"socket.info","payload":{"socketId":"s1"}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	unknown, ok := event.(*Unknown)
	if !ok || unknown.Name != "socket.info" {
		t.Fatalf("Parse returned %#v, want *Unknown", event)
	}

	for _, frame := range []string{
		`not json`,
		`{"eventId":"x"}`,
		`{"eventId":"x","name":"conversationMessage.read"}`,
		`{"eventId":"x","name":"conversationMessage.read","payload":{"timestamp":"yesterday"}}`,
	} {
		if _, err := Parse([]byte(frame)); err == nil {
			t.Errorf("Parse(%s) succeeded, want error", frame)
		}
	}
}

func TestParseList(t *testing.T) {
	items := []json.RawMessage{
		json.RawMessage(`{"eventId":"1","name":"participant.added","payload":{"conversationId":"c","profileId":"p"}}`),
		json.RawMessage(`{"eventId":"2","name":"conversationMessage.read","payload":{"messageId":"m"}}`),
	}
	decoded, err := ParseList(items)
	if err != nil {
		t.Fatalf("ParseList failed: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d events, want 2", len(decoded))
	}
	if _, err := ParseList([]json.RawMessage{json.RawMessage(`{}`)}); err == nil {
		t.Fatal("ParseList accepted a nameless event")
	}
}

func TestBusDelivery(t *testing.T) {
	bus := NewBus(nil)
	var first, second []string
	unsubscribe := bus.Subscribe(ListenerFunc(func(event Event) { first = append(first, event.EventName()) }))
	bus.Subscribe(ListenerFunc(func(event Event) { second = append(second, event.EventName()) }))

	bus.Publish(SocketConnected{})
	unsubscribe()
	bus.Publish(SessionStopped{})

	if len(first) != 1 || first[0] != NameSocketConnected {
		t.Errorf("first listener saw %v", first)
	}
	if len(second) != 2 || second[1] != NameSessionStopped {
		t.Errorf("second listener saw %v", second)
	}
}

func TestBusSurvivesPanickingListener(t *testing.T) {
	bus := NewBus(nil)
	delivered := false
	bus.Subscribe(ListenerFunc(func(Event) { panic("listener bug") }))
	bus.Subscribe(ListenerFunc(func(Event) { delivered = true }))

	bus.Publish(SessionStarted{ProfileID: "alice"})
	if !delivered {
		t.Fatal("listener after a panicking listener was skipped")
	}
}

func TestBusUnsubscribeDuringDispatch(t *testing.T) {
	bus := NewBus(nil)
	calls := 0
	var unsubscribe func()
	unsubscribe = bus.Subscribe(ListenerFunc(func(Event) {
		calls++
		unsubscribe()
	}))

	bus.Publish(SocketConnected{})
	bus.Publish(SocketConnected{})
	if calls != 1 {
		t.Fatalf("listener called %d times, want 1", calls)
	}
}
