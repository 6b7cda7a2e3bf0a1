package common

import (
	"crypto/rand"
	"strings"
)

// GenerateRandByteArray returns size cryptographically random bytes.
// It panics if the system RNG is unavailable, which is unrecoverable anyway.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// Useful for removing passwords and derived keys from memory after use.
// A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// NormalizeUserID canonicalizes a user identifier: surrounding whitespace is
// trimmed and the id is lowercased, so "Alice " and "alice" are the same user.
func NormalizeUserID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
