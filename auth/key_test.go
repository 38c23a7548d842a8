package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashKey(t *testing.T) {
	hash, err := HashKey("dev-mint-key", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashKey: %v", err)
	}
	if err := CheckKeyHash(hash); err != nil {
		t.Fatalf("CheckKeyHash(%q) = %v", hash, err)
	}

	tests := []struct {
		key  string
		want bool
	}{
		{"dev-mint-key", true},
		{"dev-mint-kez", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := VerifyKey(tt.key, hash); got != tt.want {
			t.Errorf("VerifyKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestHashKey_Length(t *testing.T) {
	for _, key := range []string{"short", strings.Repeat("k", 73)} {
		if _, err := HashKey(key, bcrypt.MinCost); err == nil {
			t.Errorf("HashKey(%d bytes) accepted", len(key))
		}
	}
}

func TestCheckKeyHash(t *testing.T) {
	for _, hash := range []string{"", "plain-text-key", "$2a$"} {
		if CheckKeyHash(hash) == nil {
			t.Errorf("CheckKeyHash(%q) accepted", hash)
		}
	}
}
