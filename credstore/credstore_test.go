// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package credstore

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/bureau-foundation/courier/lib/sealed"
)

func testSession() SessionData {
	return SessionData{
		ProfileID:   "alice",
		SessionID:   "session-1",
		AccessToken: "token-1",
		ExpiresOn:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
	}
}

func TestSessionValid(t *testing.T) {
	session := testSession()
	expiry := session.Expiry()

	if !session.Valid(expiry.Add(-time.Millisecond)) {
		t.Error("session should be valid before expiry")
	}
	if session.Valid(expiry) {
		t.Error("session should be invalid at expiry")
	}
	session.AccessToken = ""
	if session.Valid(expiry.Add(-time.Hour)) {
		t.Error("session without a token should be invalid")
	}
}

// exerciseStore runs the Store contract against any implementation.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()

	session, err := store.Session()
	if err != nil {
		t.Fatalf("Session() on empty store failed: %v", err)
	}
	if session != nil {
		t.Fatalf("Session() on empty store = %+v, want nil", session)
	}

	if err := store.SetSession(testSession()); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}
	session, err = store.Session()
	if err != nil || session == nil || *session != testSession() {
		t.Fatalf("Session() = %+v, %v; want stored session", session, err)
	}

	renewed := testSession()
	renewed.AccessToken = "token-2"
	if err := store.SetSession(renewed); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}
	session, _ = store.Session()
	if session.AccessToken != "token-2" {
		t.Fatalf("AccessToken after renewal = %q, want token-2", session.AccessToken)
	}

	first, err := EnsureDevice(store)
	if err != nil {
		t.Fatalf("EnsureDevice failed: %v", err)
	}
	if first.DeviceID == "" {
		t.Fatal("EnsureDevice returned an empty device ID")
	}
	second, err := EnsureDevice(store)
	if err != nil {
		t.Fatalf("EnsureDevice failed: %v", err)
	}
	if second.DeviceID != first.DeviceID {
		t.Fatalf("device ID changed: %q then %q", first.DeviceID, second.DeviceID)
	}

	if err := store.ClearSession(); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}
	if session, _ := store.Session(); session != nil {
		t.Fatalf("Session() after clear = %+v", session)
	}
	device, _ := store.Device()
	if device.DeviceID != first.DeviceID {
		t.Fatal("ClearSession removed the device record")
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFileStorePlain(t *testing.T) {
	store, err := NewFile(FileConfig{Directory: t.TempDir(), APISpace: "space"})
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	exerciseStore(t, store)
}

func TestFileStoreSealedPersistsAcrossInstances(t *testing.T) {
	directory := t.TempDir()
	sealer := sealed.Passphrase{Secret: "s3cret", WorkFactor: 10}

	writer, err := NewFile(FileConfig{Directory: directory, APISpace: "space", Sealer: sealer})
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	if err := writer.SetSession(testSession()); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}

	raw, err := os.ReadFile(writer.Path())
	if err != nil {
		t.Fatalf("reading credential file: %v", err)
	}
	if bytes.Contains(raw, []byte("token-1")) {
		t.Fatal("sealed credential file contains the access token in clear")
	}

	reader, err := NewFile(FileConfig{Directory: directory, APISpace: "space", Sealer: sealer})
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	session, err := reader.Session()
	if err != nil {
		t.Fatalf("Session() failed: %v", err)
	}
	if session == nil || *session != testSession() {
		t.Fatalf("Session() = %+v, want persisted session", session)
	}

	wrong, err := NewFile(FileConfig{Directory: directory, APISpace: "space", Sealer: sealed.Passphrase{Secret: "nope", WorkFactor: 10}})
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	if _, err := wrong.Session(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Session() with wrong passphrase = %v, want ErrCorrupt", err)
	}
}

func TestFileStoreKeypairSealer(t *testing.T) {
	keypair, err := sealed.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair failed: %v", err)
	}
	store, err := NewFile(FileConfig{Directory: t.TempDir(), APISpace: "space", Sealer: keypair})
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	exerciseStore(t, store)
}

func TestFileNameScopesBySpace(t *testing.T) {
	if FileName("a") == FileName("b") {
		t.Fatal("different API spaces share a credential file name")
	}
	if FileName("a") != FileName("a") {
		t.Fatal("FileName is not stable")
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	directory := t.TempDir()
	store, err := NewFile(FileConfig{Directory: directory, APISpace: "space"})
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	if err := os.WriteFile(store.Path(), []byte{0xff, 0x00, 0x13}, 0o600); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}
	if _, err := store.Session(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Session() = %v, want ErrCorrupt", err)
	}
}
