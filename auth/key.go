package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HeaderMintKey carries the shared key guarding the token mint endpoint.
const HeaderMintKey = "X-Mint-Key"

const (
	minKeyLength = 8
	// bcrypt ignores input past 72 bytes.
	maxKeyLength = 72
)

// HashKey returns the bcrypt hash of a mint key, for the simulator's
// mint_key_hash setting.
func HashKey(key string, cost int) (string, error) {
	switch {
	case len(key) < minKeyLength:
		return "", fmt.Errorf("mint key must be at least %d bytes", minKeyLength)
	case len(key) > maxKeyLength:
		return "", fmt.Errorf("mint key must be at most %d bytes", maxKeyLength)
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("hash mint key: %w", err)
	}
	return string(hash), nil
}

// CheckKeyHash rejects values that are not bcrypt hashes.
func CheckKeyHash(hash string) error {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return errors.New("not a bcrypt hash")
	}
	return nil
}

// VerifyKey reports whether key matches hash.
func VerifyKey(key, hash string) bool {
	return key != "" && bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
