// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/courier/client"
	"github.com/bureau-foundation/courier/cmd/courier/cli"
	"github.com/bureau-foundation/courier/lib/config"
	"github.com/bureau-foundation/courier/lib/secret"
	"github.com/bureau-foundation/courier/messaging"
	"github.com/bureau-foundation/courier/session"
)

// SecretEnv names the environment variable holding the JWT signing
// secret.
const SecretEnv = "COURIER_JWT_SECRET"

// connectionFlags are the flags every backend command accepts.
type connectionFlags struct {
	ConfigPath string
	Profile    string
	Issuer     string
	Audience   string
	SecretFile string
	JSON       bool
}

func (f *connectionFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.ConfigPath, "config", "", "configuration file (default $"+config.EnvVar+")")
	flagSet.StringVar(&f.Profile, "profile", "", "profile id to authenticate as")
	flagSet.StringVar(&f.Issuer, "issuer", "", "JWT issuer configured for the API space")
	flagSet.StringVar(&f.Audience, "audience", "", "JWT audience configured for the API space")
	flagSet.StringVar(&f.SecretFile, "secret-file", "", "file holding the JWT secret, or - for stdin")
	flagSet.BoolVar(&f.JSON, "json", false, "output as JSON")
}

// environment is an initialised client plus what its commands need.
type environment struct {
	client *client.Client
	logger *slog.Logger
	auth   *secretAuthenticator
}

// open loads configuration, builds the client and initialises it.
func (f *connectionFlags) open(ctx context.Context, options client.Options) (*environment, error) {
	var cfg *config.Config
	var err error
	if f.ConfigPath != "" {
		cfg, err = config.LoadFile(f.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if cfg.Credentials.Directory == "" {
		directory, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locating credentials directory: %w", err)
		}
		cfg.Credentials.Directory = filepath.Join(directory, "courier")
	}
	logger, err := cli.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	auth := &secretAuthenticator{flags: f}
	options.Authenticator = auth
	options.Logger = logger
	sdk, err := client.New(cfg, options)
	if err != nil {
		auth.Close()
		return nil, err
	}
	if err := sdk.Initialise(ctx); err != nil {
		sdk.Close()
		auth.Close()
		return nil, err
	}
	return &environment{client: sdk, logger: logger, auth: auth}, nil
}

func (e *environment) Close() {
	e.client.Close()
	e.auth.Close()
}

// secretAuthenticator loads the JWT secret on the first challenge, so
// commands running on a stored session never ask for it.
type secretAuthenticator struct {
	flags *connectionFlags

	once   sync.Once
	buffer *secret.Buffer
	jwt    *session.JWTAuthenticator
	err    error
}

func (a *secretAuthenticator) AuthenticationChallenge(ctx context.Context, challenge messaging.AuthChallenge) (string, error) {
	a.once.Do(a.load)
	if a.err != nil {
		return "", a.err
	}
	return a.jwt.AuthenticationChallenge(ctx, challenge)
}

func (a *secretAuthenticator) load() {
	if a.flags.Profile == "" {
		a.err = fmt.Errorf("no stored session: --profile is required to create one")
		return
	}
	switch {
	case a.flags.SecretFile != "":
		a.buffer, a.err = secret.FromFile(a.flags.SecretFile)
	case os.Getenv(SecretEnv) != "":
		a.buffer, a.err = secret.FromEnv(SecretEnv)
	default:
		a.buffer, a.err = secret.Prompt("JWT secret")
	}
	if a.err != nil {
		return
	}
	a.jwt = &session.JWTAuthenticator{
		Secret:   a.buffer.Bytes(),
		Subject:  a.flags.Profile,
		Issuer:   a.flags.Issuer,
		Audience: a.flags.Audience,
	}
}

func (a *secretAuthenticator) Close() {
	if a.buffer != nil {
		a.buffer.Close()
	}
}
