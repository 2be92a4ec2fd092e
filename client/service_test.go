// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/courier/credstore"
	"github.com/bureau-foundation/courier/events"
	"github.com/bureau-foundation/courier/push"
	"github.com/bureau-foundation/courier/session"
)

func initialisedClient(t *testing.T, backend *fakeBackend, options Options) *Client {
	t.Helper()
	if options.Authenticator == nil {
		options.Authenticator = testAuthenticator()
	}
	client := newTestClient(t, backend, options)
	if err := client.Initialise(context.Background()); err != nil {
		t.Fatalf("Initialise failed: %v", err)
	}
	return client
}

func TestSendMessageCreatesSession(t *testing.T) {
	backend := newFakeBackend(t)
	log := newEventLog()
	client := initialisedClient(t, backend, Options{Listeners: []events.Listener{log}})

	result, err := client.Service().SendTextMessage(context.Background(), "c1", "hello")
	if err != nil {
		t.Fatalf("SendTextMessage failed: %v", err)
	}
	if result.Value.ID != "m1" || result.Value.EventID != 12 {
		t.Errorf("result = %+v", result.Value)
	}
	if backend.createCount() != 1 {
		t.Errorf("created %d sessions, want 1", backend.createCount())
	}
	if client.State() != session.SessionActive {
		t.Errorf("State() = %v, want %v", client.State(), session.SessionActive)
	}
	started := log.waitFor(t, events.NameSessionStarted).(events.SessionStarted)
	if started.ProfileID != "alice" || started.SessionID != "session-1" {
		t.Errorf("SessionStarted = %+v", started)
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.sent) != 1 || backend.sent[0].Parts[0].Data != "hello" {
		t.Errorf("sent = %+v", backend.sent)
	}
}

func TestConcurrentCallsShareOneSession(t *testing.T) {
	backend := newFakeBackend(t)
	client := initialisedClient(t, backend, Options{})

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Service().GetMyProfile(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("GetMyProfile failed: %v", err)
		}
	}
	if backend.createCount() != 1 {
		t.Errorf("created %d sessions, want 1", backend.createCount())
	}
}

func TestServiceRenewsOnUnauthorized(t *testing.T) {
	backend := newFakeBackend(t)
	client := initialisedClient(t, backend, Options{})
	if _, err := client.Service().StartSession(context.Background()); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	backend.mu.Lock()
	backend.rejectOnce["token-1"] = true
	backend.mu.Unlock()

	result, err := client.Service().GetProfile(context.Background(), "bob")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if result.ETag != `"p1"` || result.Value["id"] != "bob" {
		t.Errorf("result = %+v", result)
	}
	if backend.createCount() != 2 {
		t.Errorf("created %d sessions, want 2", backend.createCount())
	}
	stored, _ := client.Session()
	if stored == nil || stored.AccessToken != "token-2" {
		t.Errorf("stored session = %+v", stored)
	}
}

func TestQueryEventsDecodesTypedEvents(t *testing.T) {
	client := initialisedClient(t, newFakeBackend(t), Options{})

	result, err := client.Service().QueryEvents(context.Background(), "c1", 0, 10)
	if err != nil {
		t.Fatalf("QueryEvents failed: %v", err)
	}
	if len(result.Value) != 2 {
		t.Fatalf("got %d events, want 2", len(result.Value))
	}
	added, ok := result.Value[0].(*events.ParticipantAdded)
	if !ok {
		t.Fatalf("event 0 = %T, want *events.ParticipantAdded", result.Value[0])
	}
	if added.ConversationID != "c1" || added.ProfileID != "bob" || added.ConversationEventID != 1 {
		t.Errorf("participant added = %+v", added)
	}
	sent, ok := result.Value[1].(*events.MessageSent)
	if !ok {
		t.Fatalf("event 1 = %T, want *events.MessageSent", result.Value[1])
	}
	if sent.MessageID != "m1" || sent.Context.ConversationID != "c1" {
		t.Errorf("message sent = %+v", sent)
	}
}

func TestEndSessionClearsCredentials(t *testing.T) {
	backend := newFakeBackend(t)
	log := newEventLog()
	client := initialisedClient(t, backend, Options{Listeners: []events.Listener{log}})
	if _, err := client.Service().StartSession(context.Background()); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	if err := client.Service().EndSession(context.Background()); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	log.waitFor(t, events.NameSessionStopped)
	if stored, _ := client.Session(); stored != nil {
		t.Errorf("session still stored: %+v", stored)
	}
	if client.SessionPhase() != session.NoSession {
		t.Errorf("SessionPhase() = %v, want %v", client.SessionPhase(), session.NoSession)
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.ended) != 1 || backend.ended[0] != "session-1" {
		t.Errorf("ended = %v", backend.ended)
	}
}

func TestCallWithoutAuthenticatorFails(t *testing.T) {
	client := newTestClient(t, newFakeBackend(t), Options{Store: credstore.NewMemory()})
	if err := client.Initialise(context.Background()); err != nil {
		t.Fatalf("Initialise failed: %v", err)
	}

	_, err := client.Service().GetMyProfile(context.Background())
	if !errors.Is(err, session.ErrNoSession) {
		t.Errorf("GetMyProfile = %v, want ErrNoSession", err)
	}
}

type recordingNavigator struct {
	mu   sync.Mutex
	urls []string
}

func (n *recordingNavigator) Navigate(_ context.Context, url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urls = append(n.urls, url)
	return nil
}

func TestHandlePushTracksAndNavigates(t *testing.T) {
	backend := newFakeBackend(t)
	navigator := &recordingNavigator{}
	client := initialisedClient(t, backend, Options{Navigator: navigator})

	data := map[string]string{
		push.KeyDeepLink: `{"url":"app://orders/7","trackingUrl":"` + backend.server.URL + `/track/7"}`,
	}
	result, err := client.HandlePush(context.Background(), data, true)
	if err != nil {
		t.Fatalf("HandlePush failed: %v", err)
	}
	if result.ResolvedURL != "app://orders/7" || !result.IsTrackingRecorded || !result.IsNavigationPerformed {
		t.Errorf("result = %+v", result)
	}
	if len(navigator.urls) != 1 || navigator.urls[0] != "app://orders/7" {
		t.Errorf("navigated to %v", navigator.urls)
	}
	backend.mu.Lock()
	clicks := backend.clicks
	backend.mu.Unlock()
	if clicks != 1 {
		t.Errorf("recorded %d clicks, want 1", clicks)
	}
	if backend.createCount() != 0 {
		t.Errorf("click tracking created %d sessions", backend.createCount())
	}
}

func TestParsePushData(t *testing.T) {
	details, err := ParsePush(map[string]string{push.KeyData: `{"order":7}`})
	if err != nil {
		t.Fatalf("ParsePush failed: %v", err)
	}
	if details.URL != "" || details.Data["order"] != float64(7) {
		t.Errorf("details = %+v", details)
	}
}

func TestPushTokenRegisteredOnSessionStart(t *testing.T) {
	backend := newFakeBackend(t)
	provider := push.TokenProviderFunc(func(context.Context) (string, error) { return "fcm-token", nil })
	client := initialisedClient(t, backend, Options{PushTokenProvider: provider})
	client.config.Push.Package = "com.example.app"

	if _, err := client.Service().StartSession(context.Background()); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	select {
	case <-backend.registered:
	case <-time.After(5 * time.Second):
		t.Fatal("push token was not registered")
	}

	backend.mu.Lock()
	registration := backend.registrations[0]
	backend.mu.Unlock()
	if registration.Token != "fcm-token" || registration.Provider != PushProvider || registration.Package != "com.example.app" {
		t.Errorf("registration = %+v", registration)
	}

	client.push.Wait()
	device, err := client.store.Device()
	if err != nil {
		t.Fatalf("Device failed: %v", err)
	}
	if device.PushToken != "fcm-token" {
		t.Errorf("stored push token = %q", device.PushToken)
	}
}
