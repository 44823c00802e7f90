// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"strings"
	"testing"
)

// legacyHash is "changeme" hashed with m=65536,t=1,p=4.
const legacyHash = "$argon2id$v=19$m=65536,t=1,p=4$mucMvOaS6lZ2LWNS1OEFKw$UYEWv8cvCOO6l2zGeqv3JPVe1nyy0x9GXBfYEuDM544"

func TestHashSecret(t *testing.T) {
	hash, err := HashSecret("band2024")
	if err != nil {
		t.Fatalf("HashSecret error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$") {
		t.Errorf("unexpected hash prefix: %s", hash)
	}
	if strings.Contains(hash, "band2024") {
		t.Error("hash contains the plain secret")
	}

	other, err := HashSecret("band2024")
	if err != nil {
		t.Fatalf("HashSecret error: %v", err)
	}
	if hash == other {
		t.Error("two hashes of the same secret should differ by salt")
	}
}

func TestVerifySecret(t *testing.T) {
	hash, err := HashSecret("ohnelimit2024")
	if err != nil {
		t.Fatalf("HashSecret error: %v", err)
	}

	tests := []struct {
		name   string
		secret string
		want   bool
	}{
		{"exact", "ohnelimit2024", true},
		{"wrong", "band2024", false},
		{"case differs", "OhneLimit2024", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VerifySecret(tt.secret, hash)
			if err != nil {
				t.Fatalf("VerifySecret error: %v", err)
			}
			if got != tt.want {
				t.Errorf("VerifySecret(%q) = %v, want %v", tt.secret, got, tt.want)
			}
		})
	}
}

func TestVerifySecret_LegacyParameters(t *testing.T) {
	ok, err := VerifySecret("changeme", legacyHash)
	if err != nil {
		t.Fatalf("VerifySecret error: %v", err)
	}
	if !ok {
		t.Fatal("legacy hash rejected the correct secret")
	}
	if !NeedsRehash(legacyHash) {
		t.Error("NeedsRehash(legacy) = false, want true")
	}
}

func TestVerifySecret_Malformed(t *testing.T) {
	for _, stored := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=x$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1,t=1,p=1$!!!$a2V5",
	} {
		_, err := VerifySecret("secret", stored)
		if !errors.Is(err, ErrMalformedHash) {
			t.Errorf("VerifySecret(%q) error = %v, want ErrMalformedHash", stored, err)
		}
	}
}

func TestNeedsRehash_Current(t *testing.T) {
	hash, err := HashSecret("x")
	if err != nil {
		t.Fatalf("HashSecret error: %v", err)
	}
	if NeedsRehash(hash) {
		t.Error("NeedsRehash(current) = true, want false")
	}
	if !NeedsRehash("garbage") {
		t.Error("NeedsRehash(garbage) = false, want true")
	}
}

func TestSecretsEqual(t *testing.T) {
	if !SecretsEqual("legacy", "legacy") {
		t.Error("SecretsEqual on equal values = false")
	}
	if SecretsEqual("legacy", "Legacy") {
		t.Error("SecretsEqual is not case sensitive")
	}
	if SecretsEqual("legacy", "") {
		t.Error("SecretsEqual accepted empty secret")
	}
}
