// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

type sampleClaims struct {
	Subject string `cbor:"1,keyasint"`
	Name    string `cbor:"2,keyasint,omitempty"`
	Expires int64  `cbor:"3,keyasint"`
	Nonce   []byte `cbor:"4,keyasint"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleClaims{Subject: "80351110224678912", Name: "nelly", Expires: 1767225600, Nonce: []byte{1, 2, 3}}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded sampleClaims
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Subject != original.Subject || decoded.Name != original.Name ||
		decoded.Expires != original.Expires || !bytes.Equal(decoded.Nonce, original.Nonce) {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	first, err := Marshal(map[string]any{"b": 1, "a": 2, "c": []string{"x"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(map[string]any{"c": []string{"x"}, "a": 2, "b": 1})
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding not deterministic: %x != %x", first, again)
		}
	}
}

func TestOmitempty(t *testing.T) {
	withName, err := Marshal(sampleClaims{Subject: "1", Name: "x"})
	if err != nil {
		t.Fatal(err)
	}
	withoutName, err := Marshal(sampleClaims{Subject: "1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(withoutName) >= len(withName) {
		t.Errorf("omitempty not effective: without=%d bytes, with=%d bytes", len(withoutName), len(withName))
	}
}

func TestUnmarshal_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"invalid", []byte{0xFF, 0xFE, 0xFD}},
		// {1: "a", 1: "b"}
		{"duplicate key", []byte{0xA2, 0x01, 0x61, 'a', 0x01, 0x61, 'b'}},
		{"truncated", []byte{0xA1, 0x01}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var claims sampleClaims
			if err := Unmarshal(test.data, &claims); err == nil {
				t.Errorf("Unmarshal(%x) succeeded, want error", test.data)
			}
		})
	}
}

func TestUnmarshal_AnyMapsAreStringKeyed(t *testing.T) {
	data, err := Marshal(map[string]any{"outer": map[string]any{"inner": "v"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	outer, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", decoded)
	}
	if _, ok := outer["outer"].(map[string]any); !ok {
		t.Errorf("nested type = %T, want map[string]any", outer["outer"])
	}
}
