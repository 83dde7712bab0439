// Package ipsec generates and checks the pre-shared keys of the site-to-site
// VPN connections between the hub and on-prem gateways.
package ipsec

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// Key limits accepted by the gateway connections.
const (
	MaxKeyLength = 128

	// DefaultKeyBytes is the amount of randomness in a generated key. Hex
	// encoding doubles it.
	DefaultKeyBytes = 32

	minKeyBytes = 16
	maxKeyBytes = MaxKeyLength / 2
)

// ErrInvalidSharedKey is returned by ValidateSharedKey.
var ErrInvalidSharedKey = errors.New("invalid shared key")

// GenerateSharedKey returns n random bytes, hex encoded.
func GenerateSharedKey(n int) (string, error) {
	if n < minKeyBytes || n > maxKeyBytes {
		return "", fmt.Errorf("invalid key size %d: must be between %d and %d bytes", n, minKeyBytes, maxKeyBytes)
	}

	key := make([]byte, n)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate random key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// ValidateSharedKey checks that key is non-empty, at most MaxKeyLength
// characters and printable ASCII without spaces.
func ValidateSharedKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSharedKey)
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: %d characters, at most %d allowed", ErrInvalidSharedKey, len(key), MaxKeyLength)
	}
	for i := 0; i < len(key); i++ {
		if c := key[i]; c <= ' ' || c > '~' {
			return fmt.Errorf("%w: non-printable or space character at position %d", ErrInvalidSharedKey, i)
		}
	}
	return nil
}
