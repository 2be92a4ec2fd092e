// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Session.MaxUnauthorizedRetries != 3 {
		t.Errorf("MaxUnauthorizedRetries = %d, want 3", cfg.Session.MaxUnauthorizedRetries)
	}
	if cfg.Socket.ReconnectInitial != 60*time.Millisecond {
		t.Errorf("ReconnectInitial = %v, want 60ms", cfg.Socket.ReconnectInitial)
	}
	if cfg.Socket.ReconnectMax != 60*time.Second {
		t.Errorf("ReconnectMax = %v, want 60s", cfg.Socket.ReconnectMax)
	}
}

func TestLoad_RequiresEnvVar(t *testing.T) {
	t.Setenv(EnvVar, "")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error when COURIER_CONFIG not set")
	}
	if !strings.HasPrefix(err.Error(), "COURIER_CONFIG environment variable not set") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "courier.yaml", `
environment: staging
api_space: space-1
session:
  max_unauthorized_retries: 5
  create_timeout: 5s
socket:
  reconnect_initial: 100ms
staging:
  endpoints:
    service: https://staging.example.com
  log:
    level: debug
`)
	t.Setenv(EnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.APISpace != "space-1" {
		t.Errorf("APISpace = %q", cfg.APISpace)
	}
	if cfg.Session.MaxUnauthorizedRetries != 5 {
		t.Errorf("MaxUnauthorizedRetries = %d, want 5", cfg.Session.MaxUnauthorizedRetries)
	}
	if cfg.Session.CreateTimeout != 5*time.Second {
		t.Errorf("CreateTimeout = %v, want 5s", cfg.Session.CreateTimeout)
	}
	if cfg.Session.RenewalAttempts != 2 {
		t.Errorf("RenewalAttempts = %d, want default 2", cfg.Session.RenewalAttempts)
	}
	if cfg.Socket.ReconnectInitial != 100*time.Millisecond {
		t.Errorf("ReconnectInitial = %v", cfg.Socket.ReconnectInitial)
	}
	if cfg.Endpoints.Service != "https://staging.example.com" {
		t.Errorf("staging override not applied: %q", cfg.Endpoints.Service)
	}
	if cfg.Endpoints.Socket != "wss://api.comapi.com" {
		t.Errorf("socket endpoint = %q, want default", cfg.Endpoints.Socket)
	}
	level, err := cfg.LogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("LogLevel() = %v, %v; want debug", level, err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}
}

func TestLoad_JSONC(t *testing.T) {
	path := writeConfig(t, "courier.jsonc", `{
  // tenant
  "api_space": "space-2",
  "socket": {"reconnect_max": "30s",},
  /* block comment */
  "log": {"format": "json"}
}`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if cfg.APISpace != "space-2" {
		t.Errorf("APISpace = %q", cfg.APISpace)
	}
	if cfg.Socket.ReconnectMax != 30*time.Second {
		t.Errorf("ReconnectMax = %v, want 30s", cfg.Socket.ReconnectMax)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q", cfg.Log.Format)
	}
}

func TestExpandVariables(t *testing.T) {
	t.Setenv("COURIER_TEST_HOME", "/home/tester")
	cfg, err := Parse([]byte(`
api_space: s
credentials:
  directory: ${COURIER_TEST_HOME}/.courier
endpoints:
  proxy: ${COURIER_TEST_UNSET:-socks5://127.0.0.1:1080}
`), ".yaml")
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if cfg.Credentials.Directory != "/home/tester/.courier" {
		t.Errorf("Directory = %q", cfg.Credentials.Directory)
	}
	proxyURL, err := cfg.ProxyURL()
	if err != nil {
		t.Fatalf("ProxyURL() failed: %v", err)
	}
	if proxyURL.Scheme != "socks5" || proxyURL.Host != "127.0.0.1:1080" {
		t.Errorf("ProxyURL() = %v", proxyURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing api space", func(c *Config) { c.APISpace = "" }, "api_space is required"},
		{"bad socket scheme", func(c *Config) { c.Endpoints.Socket = "https://x" }, "endpoints.socket"},
		{"bad proxy scheme", func(c *Config) { c.Endpoints.Proxy = "ftp://x" }, "endpoints.proxy"},
		{"zero renewal attempts", func(c *Config) { c.Session.RenewalAttempts = 0 }, "renewal_attempts"},
		{"inverted backoff", func(c *Config) { c.Socket.ReconnectMax = time.Millisecond }, "reconnect_initial"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad environment", func(c *Config) { c.Environment = "qa" }, "invalid environment"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			cfg.APISpace = "space"
			test.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() succeeded, want error")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("Validate() = %v, want mention of %q", err, test.wantErr)
			}
		})
	}
}

func TestSocketURL(t *testing.T) {
	cfg := Default()
	cfg.APISpace = "abc"
	cfg.Endpoints.Socket = "wss://rt.example.com/"
	if got := cfg.SocketURL(); got != "wss://rt.example.com/apispaces/abc/socket" {
		t.Errorf("SocketURL() = %q", got)
	}
}

func TestPassphrase(t *testing.T) {
	cfg := Default()
	if cfg.Passphrase() != "" {
		t.Error("Passphrase() without env name should be empty")
	}
	cfg.Credentials.PassphraseEnv = "COURIER_TEST_PASSPHRASE"
	t.Setenv("COURIER_TEST_PASSPHRASE", "hunter2")
	if cfg.Passphrase() != "hunter2" {
		t.Errorf("Passphrase() = %q", cfg.Passphrase())
	}
}
