// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bureau-foundation/courier/events"
	"github.com/bureau-foundation/courier/messaging"
	"github.com/bureau-foundation/courier/session"
)

func TestRootListsCommands(t *testing.T) {
	root := Root()
	names := map[string]bool{}
	for _, command := range root.Subcommands {
		names[command.Name] = true
	}
	for _, want := range []string{"login", "send", "conversations", "listen", "logout", "version"} {
		if !names[want] {
			t.Errorf("missing command %q", want)
		}
	}
}

func TestSendRequiresArguments(t *testing.T) {
	err := Root().Execute(context.Background(), []string{"send", "c1"})
	if err == nil || !strings.Contains(err.Error(), "message text") {
		t.Errorf("send with one argument = %v", err)
	}
}

func TestSecretAuthenticatorReadsFileOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte("shared-secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	auth := &secretAuthenticator{flags: &connectionFlags{Profile: "alice", Issuer: "issuer", Audience: "courier", SecretFile: path}}
	defer auth.Close()

	signed, err := auth.AuthenticationChallenge(context.Background(), messaging.AuthChallenge{Nonce: "n1"})
	if err != nil {
		t.Fatalf("AuthenticationChallenge failed: %v", err)
	}
	claims := &session.ChallengeClaims{}
	if _, err := jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (any, error) {
		return []byte("shared-secret"), nil
	}); err != nil {
		t.Fatalf("token does not verify with the file secret: %v", err)
	}
	if claims.Nonce != "n1" || claims.Subject != "alice" {
		t.Errorf("claims = %+v", claims)
	}

	// The secret is loaded once; removing the file does not matter.
	os.Remove(path)
	if _, err := auth.AuthenticationChallenge(context.Background(), messaging.AuthChallenge{Nonce: "n2"}); err != nil {
		t.Errorf("second challenge failed: %v", err)
	}
}

func TestSecretAuthenticatorRequiresProfile(t *testing.T) {
	auth := &secretAuthenticator{flags: &connectionFlags{}}
	if _, err := auth.AuthenticationChallenge(context.Background(), messaging.AuthChallenge{Nonce: "n"}); err == nil {
		t.Error("challenge without a profile succeeded")
	}
}

func TestEventPrinterWritesJSONLines(t *testing.T) {
	var buffer bytes.Buffer
	printer := &eventPrinter{encoder: json.NewEncoder(&buffer)}
	printer.OnEvent(events.SessionStarted{ProfileID: "alice", SessionID: "s1"})
	printer.OnEvent(events.SocketDisconnected{Err: errors.New("connection reset")})

	lines := strings.Split(strings.TrimSpace(buffer.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buffer.String())
	}
	var first, second map[string]any
	json.Unmarshal([]byte(lines[0]), &first)
	json.Unmarshal([]byte(lines[1]), &second)
	if first["name"] != events.NameSessionStarted {
		t.Errorf("first line = %v", first)
	}
	if second["name"] != events.NameSocketDisconnected || second["error"] != "connection reset" {
		t.Errorf("second line = %v", second)
	}
}
