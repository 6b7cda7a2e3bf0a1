// Package cryptox implements the password-based content cipher used for
// locked columns, folders and documents.
//
// Content is sealed with AES-256-GCM under a key stretched from the user's
// password with PBKDF2-SHA256. Every call generates a fresh salt and nonce,
// so encrypting the same plaintext twice yields different blobs. The sealed
// layout is base64(salt || nonce || ciphertext+tag), prefixed with a fixed
// marker so ciphertext can be told apart from plaintext without attempting
// decryption.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"qingplan/internal/common"
)

const (
	// Marker prefixes every stored ciphertext blob.
	Marker = "ENCv1:"

	saltSize      = 16
	nonceSize     = 12
	keySize       = 32
	kdfIterations = 100_000
)

// DeriveKey stretches password into a 256-bit AES key using PBKDF2-SHA256.
// Deterministic for a given (password, salt) pair. Callers must not cache
// the result beyond the operation that needed it.
func DeriveKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, kdfIterations, keySize, sha256.New)
}

// Encrypt seals plaintext under password and returns the portable blob
// base64(salt || nonce || ciphertext+tag). Salt and nonce are freshly random
// per call. The empty string encrypts like any other string.
func Encrypt(plaintext string, password []byte) (string, error) {
	salt := common.GenerateRandByteArray(saltSize)
	nonce := common.GenerateRandByteArray(nonceSize)

	key := DeriveKey(password, salt)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	sealed := aesgcm.Seal(nil, nonce, []byte(plaintext), nil)

	blob := make([]byte, 0, saltSize+nonceSize+len(sealed))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt reverses Encrypt. Any failure (malformed base64, truncated blob,
// AEAD tag mismatch) returns common.ErrDecryptionFailed; a wrong password
// and a corrupted blob are indistinguishable.
func Decrypt(blob string, password []byte) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", common.ErrDecryptionFailed
	}
	if len(raw) < saltSize+nonceSize {
		return "", common.ErrDecryptionFailed
	}

	salt := raw[:saltSize]
	nonce := raw[saltSize : saltSize+nonceSize]
	sealed := raw[saltSize+nonceSize:]

	key := DeriveKey(password, salt)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", common.ErrDecryptionFailed
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", common.ErrDecryptionFailed
	}

	plaintext, err := aesgcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", common.ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// GenerateSalt returns 16 random bytes base64-encoded, for password
// verification use. Content salts are generated separately inside Encrypt.
func GenerateSalt() string {
	return base64.StdEncoding.EncodeToString(common.GenerateRandByteArray(saltSize))
}

// PasswordHash computes base64(SHA-256(salt || password)) for the given
// password and base64-encoded salt. Used only to verify a password, never to
// derive a content key.
func PasswordHash(password, saltB64 string) string {
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		// A malformed salt still hashes deterministically; verification
		// against a well-formed verifier will simply fail.
		salt = []byte(saltB64)
	}
	h := sha256.New()
	h.Write(salt)
	h.Write([]byte(password))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// MakeVerifier produces the stored password verifier
// "base64(salt):base64(SHA256(salt||password))" for a fresh random salt.
func MakeVerifier(password string) string {
	salt := GenerateSalt()
	return salt + ":" + PasswordHash(password, salt)
}

// VerifyPassword checks a candidate password against a stored verifier.
// Malformed verifiers never match.
func VerifyPassword(password, verifier string) bool {
	salt, wantHash, ok := strings.Cut(verifier, ":")
	if !ok || salt == "" || wantHash == "" {
		return false
	}
	gotHash := PasswordHash(password, salt)
	return subtle.ConstantTimeCompare([]byte(gotHash), []byte(wantHash)) == 1
}

// IsEncrypted reports whether s carries the ciphertext marker.
func IsEncrypted(s string) bool {
	return strings.HasPrefix(s, Marker)
}

// EncryptContent seals content and prepends the marker. Content already
// tagged as ciphertext is returned unchanged, which keeps call sites
// idempotent-safe over mixed encrypted/plaintext data sets.
func EncryptContent(content string, password []byte) (string, error) {
	if IsEncrypted(content) {
		return content, nil
	}
	blob, err := Encrypt(content, password)
	if err != nil {
		return "", err
	}
	return Marker + blob, nil
}

// DecryptContent strips the marker and opens the blob. Untagged content is
// returned unchanged.
func DecryptContent(content string, password []byte) (string, error) {
	if !IsEncrypted(content) {
		return content, nil
	}
	return Decrypt(strings.TrimPrefix(content, Marker), password)
}
