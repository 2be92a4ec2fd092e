// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// FromEnv reads the secret in the environment variable name and
// unsets it, so child processes do not inherit it.
func FromEnv(name string) (*Buffer, error) {
	value, ok := os.LookupEnv(name)
	if !ok {
		return nil, fmt.Errorf("secret: %s is not set", name)
	}
	os.Unsetenv(name)
	return fromTrimmed([]byte(value))
}

// FromFile reads a secret from path, or from stdin when path is "-".
// Surrounding whitespace is dropped.
func FromFile(path string) (*Buffer, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("secret: reading %s: %w", path, err)
	}
	return fromTrimmed(data)
}

// Prompt writes label to the terminal and reads a secret with echo
// disabled. It fails when stdin is not a terminal.
func Prompt(label string) (*Buffer, error) {
	descriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(descriptor) {
		return nil, fmt.Errorf("secret: no terminal to prompt for %s", label)
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	data, err := term.ReadPassword(descriptor)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("secret: reading %s: %w", label, err)
	}
	return fromTrimmed(data)
}

// fromTrimmed moves the trimmed secret into a Buffer and zeroes all
// of data.
func fromTrimmed(data []byte) (*Buffer, error) {
	defer Zero(data)
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmpty
	}
	return NewFromBytes(trimmed)
}
