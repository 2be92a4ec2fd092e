// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bureau-foundation/courier/lib/clock"
	"github.com/bureau-foundation/courier/messaging"
)

// DefaultTokenTTL is the lifetime of tokens minted by JWTAuthenticator
// when TTL is zero.
const DefaultTokenTTL = 10 * time.Minute

// JWTAuthenticator answers authentication challenges with an HS256
// token signed by a secret shared with the backend's identity
// configuration. It suits development and command-line use; mobile
// applications normally fetch the token from their own server.
type JWTAuthenticator struct {
	Secret   []byte
	Subject  string
	Issuer   string
	Audience string
	TTL      time.Duration

	// Clock defaults to the real clock.
	Clock clock.Clock
}

// ChallengeClaims are the claims of a challenge answer.
type ChallengeClaims struct {
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

func (a *JWTAuthenticator) AuthenticationChallenge(_ context.Context, challenge messaging.AuthChallenge) (string, error) {
	if len(a.Secret) == 0 {
		return "", errors.New("session: JWT secret is empty")
	}
	if a.Subject == "" {
		return "", errors.New("session: JWT subject is empty")
	}
	now := time.Now()
	if a.Clock != nil {
		now = a.Clock.Now()
	}
	ttl := a.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	claims := ChallengeClaims{
		Nonce: challenge.Nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.Subject,
			Issuer:    a.Issuer,
			Audience:  jwt.ClaimStrings{a.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
	if err != nil {
		return "", fmt.Errorf("session: signing challenge answer: %w", err)
	}
	return signed, nil
}
