// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"strings"
	"testing"

	"github.com/bureau-foundation/notionbot/lib/secret"
)

func generate(t *testing.T) *Keypair {
	t.Helper()
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	t.Cleanup(func() { keypair.Close() })
	return keypair
}

func TestGenerateKeypair(t *testing.T) {
	keypair := generate(t)
	if !strings.HasPrefix(keypair.PrivateKey.String(), "AGE-SECRET-KEY-1") {
		t.Error("PrivateKey does not have the AGE-SECRET-KEY-1 prefix")
	}
	if !strings.HasPrefix(keypair.PublicKey, "age1") {
		t.Errorf("PublicKey = %q, want prefix age1", keypair.PublicKey)
	}
	if other := generate(t); other.PublicKey == keypair.PublicKey {
		t.Error("two generated keypairs have identical public keys")
	}
}

func TestLoadKeypair_DerivesPublicKey(t *testing.T) {
	original := generate(t)
	copied, err := secret.NewFromString(original.PrivateKey.String())
	if err != nil {
		t.Fatalf("NewFromString: %v", err)
	}

	loaded, err := LoadKeypair(copied)
	if err != nil {
		t.Fatalf("LoadKeypair: %v", err)
	}
	defer loaded.Close()
	if loaded.PublicKey != original.PublicKey {
		t.Errorf("PublicKey = %q, want %q", loaded.PublicKey, original.PublicKey)
	}

	garbage, _ := secret.NewFromString("not-a-key")
	defer garbage.Close()
	if _, err := LoadKeypair(garbage); err == nil {
		t.Error("LoadKeypair accepted garbage")
	}
}

func TestEncryptDecrypt(t *testing.T) {
	keypair := generate(t)

	ciphertext, err := Encrypt([]byte("ntn_integration_token"), []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if strings.Contains(ciphertext, "ntn_integration_token") {
		t.Fatal("ciphertext contains the plaintext")
	}

	plaintext, err := Decrypt(ciphertext, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	defer plaintext.Close()
	if plaintext.String() != "ntn_integration_token" {
		t.Errorf("plaintext = %q", plaintext.String())
	}
}

func TestDecrypt_Failures(t *testing.T) {
	keypair := generate(t)
	stranger := generate(t)

	ciphertext, err := Encrypt([]byte("token"), []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	tests := []struct {
		name       string
		ciphertext string
		key        *secret.Buffer
	}{
		{"wrong key", ciphertext, stranger.PrivateKey},
		{"invalid base64", "%%%", keypair.PrivateKey},
		{"corrupted", ciphertext[:len(ciphertext)/2] + "AAAA", keypair.PrivateKey},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Decrypt(test.ciphertext, test.key); err == nil {
				t.Error("Decrypt should fail")
			}
		})
	}
}

func TestEncrypt_RecipientValidation(t *testing.T) {
	if _, err := Encrypt([]byte("x"), nil); err == nil {
		t.Error("Encrypt with no recipients should fail")
	}
	if _, err := Encrypt([]byte("x"), []string{"age1bogus"}); err == nil {
		t.Error("Encrypt with an invalid recipient should fail")
	}
	if err := ParsePublicKey("age1bogus"); err == nil {
		t.Error("ParsePublicKey accepted an invalid key")
	}
	if err := ParsePublicKey(generate(t).PublicKey); err != nil {
		t.Errorf("ParsePublicKey: %v", err)
	}
}

func TestDecrypt_EmptyPlaintext(t *testing.T) {
	keypair := generate(t)
	ciphertext, err := Encrypt(nil, []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	plaintext, err := Decrypt(ciphertext, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plaintext != nil {
		t.Errorf("plaintext = %q, want nil buffer", plaintext.String())
	}
}
