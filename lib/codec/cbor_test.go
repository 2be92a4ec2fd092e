// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

type record struct {
	Token     string         `cbor:"token"`
	ExpiresOn int64          `cbor:"expires_on"`
	Extra     map[string]any `cbor:"extra,omitempty"`
}

func TestMarshalIsDeterministic(t *testing.T) {
	value := map[string]int{"zeta": 1, "alpha": 2, "mid": 3}
	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Marshal(value)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding %d differs: %x vs %x", i, again, first)
		}
	}
}

func TestUntypedMapsDecodeWithStringKeys(t *testing.T) {
	data, err := Marshal(record{Token: "t", ExpiresOn: 42, Extra: map[string]any{"nested": map[string]any{"k": "v"}}})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded record
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	nested, ok := decoded.Extra["nested"].(map[string]any)
	if !ok {
		t.Fatalf("nested map decoded as %T, want map[string]any", decoded.Extra["nested"])
	}
	if nested["k"] != "v" {
		t.Errorf("nested[k] = %v, want v", nested["k"])
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	data, err := Marshal(map[string]any{"token": "abc", "added_later": true})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded record
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Token != "abc" {
		t.Errorf("Token = %q, want abc", decoded.Token)
	}
}
