// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts small blobs at rest with age. Two sealers are
// provided: Passphrase derives the key with scrypt from a user secret,
// and Keypair encrypts to an X25519 recipient.
package sealed

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
)

// Sealer encrypts and decrypts a blob.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}

// DefaultWorkFactor is the scrypt cost (log2 N) used when a Passphrase
// does not set one.
const DefaultWorkFactor = 15

// Passphrase seals with an scrypt-derived key.
type Passphrase struct {
	Secret string

	// WorkFactor is log2 of the scrypt N parameter. Zero selects
	// DefaultWorkFactor. Open accepts files sealed at up to this
	// factor, or DefaultWorkFactor if that is larger.
	WorkFactor int
}

var _ Sealer = Passphrase{}

func (p Passphrase) workFactor() int {
	if p.WorkFactor <= 0 {
		return DefaultWorkFactor
	}
	return p.WorkFactor
}

// Seal encrypts plaintext with the passphrase.
func (p Passphrase) Seal(plaintext []byte) ([]byte, error) {
	if p.Secret == "" {
		return nil, errors.New("sealed: empty passphrase")
	}
	recipient, err := age.NewScryptRecipient(p.Secret)
	if err != nil {
		return nil, fmt.Errorf("sealed: creating scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(p.workFactor())
	return encrypt(plaintext, recipient)
}

// Open decrypts ciphertext produced by Seal.
func (p Passphrase) Open(ciphertext []byte) ([]byte, error) {
	if p.Secret == "" {
		return nil, errors.New("sealed: empty passphrase")
	}
	identity, err := age.NewScryptIdentity(p.Secret)
	if err != nil {
		return nil, fmt.Errorf("sealed: creating scrypt identity: %w", err)
	}
	identity.SetMaxWorkFactor(max(p.workFactor(), DefaultWorkFactor))
	return decrypt(ciphertext, identity)
}

// Keypair seals to an X25519 public key and opens with the matching
// private key. Either half may be empty when only one direction is
// needed.
type Keypair struct {
	// PrivateKey is the AGE-SECRET-KEY-1... identity string.
	PrivateKey string

	// PublicKey is the age1... recipient string.
	PublicKey string
}

var _ Sealer = Keypair{}

// GenerateKeypair returns a fresh X25519 keypair.
func GenerateKeypair() (Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return Keypair{}, fmt.Errorf("sealed: generating keypair: %w", err)
	}
	return Keypair{
		PrivateKey: identity.String(),
		PublicKey:  identity.Recipient().String(),
	}, nil
}

// Seal encrypts plaintext to the public key. When only the private key
// is set, the public key is derived from it.
func (k Keypair) Seal(plaintext []byte) ([]byte, error) {
	publicKey := k.PublicKey
	if publicKey == "" && k.PrivateKey != "" {
		identity, err := age.ParseX25519Identity(k.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("sealed: parsing private key: %w", err)
		}
		publicKey = identity.Recipient().String()
	}
	recipient, err := age.ParseX25519Recipient(publicKey)
	if err != nil {
		return nil, fmt.Errorf("sealed: parsing public key: %w", err)
	}
	return encrypt(plaintext, recipient)
}

// Open decrypts ciphertext with the private key.
func (k Keypair) Open(ciphertext []byte) ([]byte, error) {
	identity, err := age.ParseX25519Identity(k.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("sealed: parsing private key: %w", err)
	}
	return decrypt(ciphertext, identity)
}

func encrypt(plaintext []byte, recipient age.Recipient) ([]byte, error) {
	var out bytes.Buffer
	writer, err := age.Encrypt(&out, recipient)
	if err != nil {
		return nil, fmt.Errorf("sealed: creating encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("sealed: writing plaintext: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("sealed: finalizing encryption: %w", err)
	}
	return out.Bytes(), nil
}

func decrypt(ciphertext []byte, identity age.Identity) ([]byte, error) {
	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("sealed: decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("sealed: reading plaintext: %w", err)
	}
	return plaintext, nil
}
