// Package common defines shared constants and sentinel errors used across
// the client and the companion server. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Cipher errors. Wrong password and corrupted ciphertext are deliberately
	// indistinguishable.
	ErrDecryptionFailed = errors.New("decryption failed")

	// Gate outcome: content may not leave the client in plaintext because the
	// owning column/folder is locked this session. Changes sync behavior,
	// never aborts a batch.
	ErrMissingPassword = errors.New("password unknown for encrypted entity")

	// Auth errors.
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrInvalidCredential = errors.New("invalid username/password")

	// Sync errors.
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrNoRemoteRecord = errors.New("entity has no remote record yet")
)
