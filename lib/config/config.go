// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads SDK configuration.
//
// Configuration comes from a single file named by either:
//   - the COURIER_CONFIG environment variable, or
//   - the --config flag passed to a command
//
// There is no automatic discovery. Files ending in .json or .jsonc are
// parsed as JSON with comments; anything else is YAML. Environment
// sections (development, staging, production) override endpoint and
// logging values when the environment matches.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable Load reads.
const EnvVar = "COURIER_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the SDK configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	// APISpace identifies the tenant on the backend. Required.
	APISpace string `yaml:"api_space"`

	Endpoints   EndpointsConfig   `yaml:"endpoints"`
	Session     SessionConfig     `yaml:"session"`
	Socket      SocketConfig      `yaml:"socket"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Push        PushConfig        `yaml:"push"`
	Log         LogConfig         `yaml:"log"`

	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides holds the fields an environment section may replace.
type Overrides struct {
	Endpoints *EndpointsConfig `yaml:"endpoints,omitempty"`
	Log       *LogConfig       `yaml:"log,omitempty"`
}

// EndpointsConfig locates the backend.
type EndpointsConfig struct {
	// Service is the REST base URL.
	Service string `yaml:"service"`

	// Socket is the websocket base URL.
	Socket string `yaml:"socket"`

	// Proxy, when set, routes both REST and socket traffic. http,
	// https and socks5 schemes are accepted.
	Proxy string `yaml:"proxy"`
}

// SessionConfig bounds session creation and renewal.
type SessionConfig struct {
	// MaxUnauthorizedRetries is how many times a call rejected with
	// 401 triggers renewal before failing. Default: 3.
	MaxUnauthorizedRetries int `yaml:"max_unauthorized_retries"`

	// RenewalAttempts is how many times an automatic session
	// creation is tried before its error surfaces. Default: 2.
	RenewalAttempts int `yaml:"renewal_attempts"`

	// CreateTimeout bounds one session creation. Default: 30s.
	CreateTimeout time.Duration `yaml:"create_timeout"`

	// RequestTimeout bounds each REST request. Default: 60s.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// SocketConfig tunes the real-time connection.
type SocketConfig struct {
	// ReconnectInitial is the first reconnect delay. Default: 60ms.
	ReconnectInitial time.Duration `yaml:"reconnect_initial"`

	// ReconnectMax caps the reconnect delay. Default: 60s.
	ReconnectMax time.Duration `yaml:"reconnect_max"`

	// ReconnectJitter randomizes each delay by up to this fraction.
	// Default: 0.2.
	ReconnectJitter float64 `yaml:"reconnect_jitter"`

	// MaxReconnectAttempts stops reconnecting after this many
	// consecutive failures. Zero retries forever.
	MaxReconnectAttempts int `yaml:"max_reconnect_attempts"`

	// HandshakeTimeout bounds the websocket handshake. Default: 20s.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

// CredentialsConfig controls where session credentials persist.
type CredentialsConfig struct {
	// Directory holds the credential file. Empty keeps credentials
	// in memory only.
	Directory string `yaml:"directory"`

	// PassphraseEnv names the environment variable holding the
	// passphrase that encrypts the credential file. Empty stores the
	// file unencrypted.
	PassphraseEnv string `yaml:"passphrase_env"`

	// WorkFactor is the scrypt cost for the passphrase. Zero uses
	// the sealed package default.
	WorkFactor int `yaml:"work_factor"`
}

// PushConfig identifies the application to the push provider.
type PushConfig struct {
	// Package is the application identifier registered with the push
	// provider.
	Package string `yaml:"package"`
}

// LogConfig controls SDK logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: info.
	Level string `yaml:"level"`

	// Format is text or json. Empty picks text on a terminal.
	Format string `yaml:"format"`
}

// Default returns the configuration every file is merged into.
func Default() *Config {
	return &Config{
		Environment: Production,
		Endpoints: EndpointsConfig{
			Service: "https://api.comapi.com",
			Socket:  "wss://api.comapi.com",
		},
		Session: SessionConfig{
			MaxUnauthorizedRetries: 3,
			RenewalAttempts:        2,
			CreateTimeout:          30 * time.Second,
			RequestTimeout:         60 * time.Second,
		},
		Socket: SocketConfig{
			ReconnectInitial: 60 * time.Millisecond,
			ReconnectMax:     60 * time.Second,
			ReconnectJitter:  0.2,
			HandshakeTimeout: 20 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load loads the file named by COURIER_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your courier config file, or use --config flag", EnvVar)
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path over Default().
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over Default(). ext selects the syntax: ".json"
// and ".jsonc" are JSON with comments, anything else is YAML.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		// JSON is a YAML subset, so the YAML decoder handles the
		// stripped document and its duration strings.
		data = jsonc.ToJSON(data)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}
	if endpoints := overrides.Endpoints; endpoints != nil {
		if endpoints.Service != "" {
			c.Endpoints.Service = endpoints.Service
		}
		if endpoints.Socket != "" {
			c.Endpoints.Socket = endpoints.Socket
		}
		if endpoints.Proxy != "" {
			c.Endpoints.Proxy = endpoints.Proxy
		}
	}
	if log := overrides.Log; log != nil {
		if log.Level != "" {
			c.Log.Level = log.Level
		}
		if log.Format != "" {
			c.Log.Format = log.Format
		}
	}
}

func (c *Config) expandVariables() {
	c.Credentials.Directory = expandVars(c.Credentials.Directory)
	c.Endpoints.Proxy = expandVars(c.Endpoints.Proxy)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case Development, Staging, Production:
	default:
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.APISpace == "" {
		errs = append(errs, errors.New("api_space is required"))
	}
	if err := checkURL("endpoints.service", c.Endpoints.Service, "http", "https"); err != nil {
		errs = append(errs, err)
	}
	if err := checkURL("endpoints.socket", c.Endpoints.Socket, "ws", "wss"); err != nil {
		errs = append(errs, err)
	}
	if c.Endpoints.Proxy != "" {
		if err := checkURL("endpoints.proxy", c.Endpoints.Proxy, "http", "https", "socks5", "socks5h"); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Session.MaxUnauthorizedRetries < 1 {
		errs = append(errs, errors.New("session.max_unauthorized_retries must be at least 1"))
	}
	if c.Session.RenewalAttempts < 1 {
		errs = append(errs, errors.New("session.renewal_attempts must be at least 1"))
	}
	if c.Socket.ReconnectInitial <= 0 || c.Socket.ReconnectMax < c.Socket.ReconnectInitial {
		errs = append(errs, errors.New("socket.reconnect_initial must be positive and no larger than socket.reconnect_max"))
	}
	if c.Socket.ReconnectJitter < 0 || c.Socket.ReconnectJitter >= 1 {
		errs = append(errs, errors.New("socket.reconnect_jitter must be in [0, 1)"))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func checkURL(field, raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	for _, scheme := range schemes {
		if parsed.Scheme == scheme {
			return nil
		}
	}
	return fmt.Errorf("%s: scheme %q not one of %v", field, parsed.Scheme, schemes)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// ProxyURL parses Endpoints.Proxy. It returns nil when no proxy is set.
func (c *Config) ProxyURL() (*url.URL, error) {
	if c.Endpoints.Proxy == "" {
		return nil, nil
	}
	return url.Parse(c.Endpoints.Proxy)
}

// SocketURL returns the websocket endpoint for the API space.
func (c *Config) SocketURL() string {
	return strings.TrimRight(c.Endpoints.Socket, "/") + "/apispaces/" + url.PathEscape(c.APISpace) + "/socket"
}

// Passphrase returns the credential passphrase from the configured
// environment variable, or "" when none is configured or set.
func (c *Config) Passphrase() string {
	if c.Credentials.PassphraseEnv == "" {
		return ""
	}
	return os.Getenv(c.Credentials.PassphraseEnv)
}
