// Package gate is the single choke point deciding, for every outbound
// column/card/document field, whether plaintext may leave the client, and
// the mirror path decrypting inbound ciphertext the session holds a
// password for.
//
// The session password map lives in memory only, scoped to one process
// lifetime; it is never persisted. Another running instance must re-prompt
// for passwords independently.
package gate

import (
	"context"
	"sync"

	"qingplan/internal/common"
	"qingplan/internal/cryptox"
	"qingplan/internal/logging"
)

// Session tracks which encrypted columns/folders/documents have had their
// password verified during the current session.
type Session struct {
	log logging.Logger

	mu        sync.RWMutex
	passwords map[string][]byte
}

func NewSession(log logging.Logger) *Session {
	return &Session{log: log, passwords: make(map[string][]byte)}
}

// Unlock verifies a candidate password against the entity's stored verifier
// and, on match, remembers it for the session. Returns false (and leaves the
// map untouched) on mismatch or a malformed verifier.
func (s *Session) Unlock(entityID, password, verifier string) bool {
	if !cryptox.VerifyPassword(password, verifier) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passwords[entityID] = []byte(password)
	return true
}

// Password returns the session password for an unlocked entity.
func (s *Session) Password(entityID string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pw, ok := s.passwords[entityID]
	return pw, ok
}

// Forget drops one entity's password (e.g., re-lock).
func (s *Session) Forget(entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pw, ok := s.passwords[entityID]; ok {
		common.WipeByteArray(pw)
		delete(s.passwords, entityID)
	}
}

// Clear wipes the whole map. Called on logout.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, pw := range s.passwords {
		common.WipeByteArray(pw)
		delete(s.passwords, id)
	}
}

// OutboundContent decides what an encrypted-owner entity's content may look
// like on the wire:
//
//	password known, untagged  -> encrypt now, send ciphertext
//	password known, tagged    -> send as-is
//	password unknown, tagged  -> send as-is (still ciphertext)
//	password unknown, untagged -> ErrMissingPassword, warn
//
// The last row is the dangerous case: a fresh plaintext edit made before the
// user unlocked the owner must never reach the remote store. Callers treat
// ErrMissingPassword as "exclude this record from sync", not as a batch
// failure. Unencrypted owners pass content through untouched.
func (s *Session) OutboundContent(ctx context.Context, ownerID string, ownerEncrypted bool, content string) (string, error) {
	if !ownerEncrypted || cryptox.IsEncrypted(content) {
		return content, nil
	}

	pw, known := s.Password(ownerID)
	if !known {
		s.log.Warn(ctx, "excluding plaintext of locked entity from sync", "owner", ownerID)
		return "", common.ErrMissingPassword
	}

	return cryptox.EncryptContent(content, pw)
}

// OutboundTitle is OutboundContent for column/folder titles, which must
// still render a list row remotely: instead of excluding the record, an
// unknown-password fresh-plaintext title is replaced with a fixed
// placeholder. A still-tagged title is sent unchanged (lossless).
func (s *Session) OutboundTitle(ctx context.Context, ownerID string, ownerEncrypted bool, title string) (string, error) {
	if !ownerEncrypted || cryptox.IsEncrypted(title) {
		return title, nil
	}

	pw, known := s.Password(ownerID)
	if !known {
		s.log.Warn(ctx, "substituting placeholder for locked title", "owner", ownerID)
		return common.LockedTitlePlaceholder, nil
	}
	return cryptox.EncryptContent(title, pw)
}

// sealField re-encrypts one decrypted field for storage. Already-tagged
// values and values with no known password pass through unchanged; an
// encryption failure keeps the plaintext rather than losing the field.
func (s *Session) sealField(ctx context.Context, ownerID, value string) string {
	if cryptox.IsEncrypted(value) {
		return value
	}
	pw, known := s.Password(ownerID)
	if !known {
		return value
	}
	enc, err := cryptox.EncryptContent(value, pw)
	if err != nil {
		s.log.Warn(ctx, "field re-encryption for cache failed, keeping plaintext", "owner", ownerID)
		return value
	}
	return enc
}

// InboundContent decrypts tagged ciphertext in place when the session holds
// the owner's password. Ciphertext without a known password, and blobs that
// fail to decrypt, are returned still tagged; the caller renders a locked
// placeholder rather than attempting to display them.
func (s *Session) InboundContent(ctx context.Context, ownerID, content string) string {
	if !cryptox.IsEncrypted(content) {
		return content
	}
	pw, known := s.Password(ownerID)
	if !known {
		return content
	}
	plain, err := cryptox.DecryptContent(content, pw)
	if err != nil {
		s.log.Warn(ctx, "inbound blob failed to decrypt, leaving tagged", "owner", ownerID)
		return content
	}
	return plain
}
