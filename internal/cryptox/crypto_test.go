package cryptox

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qingplan/internal/common"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt-16byt")

	key1 := DeriveKey(password, salt)
	key2 := DeriveKey(password, salt)

	require.Equal(t, key1, key2)
	require.Len(t, key1, 32)
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveKey(password, []byte("salt-1"))
	key2 := DeriveKey(password, []byte("salt-2"))

	require.NotEqual(t, key1, key2)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	cases := []string{
		"buy milk",
		"",
		"多字节文本 with mixed content\nand newlines",
		strings.Repeat("x", 10_000),
	}
	password := []byte("abcd")

	for _, plaintext := range cases {
		blob, err := Encrypt(plaintext, password)
		require.NoError(t, err)

		got, err := Decrypt(blob, password)
		require.NoError(t, err)
		require.Equal(t, plaintext, got)
	}
}

func TestDecrypt_WrongPassword(t *testing.T) {
	blob, err := Encrypt("secret thought", []byte("right"))
	require.NoError(t, err)

	_, err = Decrypt(blob, []byte("wrong"))
	require.ErrorIs(t, err, common.ErrDecryptionFailed)
}

func TestDecrypt_MalformedBlob(t *testing.T) {
	for _, blob := range []string{
		"not base64 at all!!!",
		base64.StdEncoding.EncodeToString([]byte("too short")),
		"",
	} {
		_, err := Decrypt(blob, []byte("pw"))
		require.ErrorIs(t, err, common.ErrDecryptionFailed)
	}
}

func TestDecrypt_TamperedBlob(t *testing.T) {
	blob, err := Encrypt("payload", []byte("pw"))
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff

	_, err = Decrypt(base64.StdEncoding.EncodeToString(raw), []byte("pw"))
	require.ErrorIs(t, err, common.ErrDecryptionFailed)
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	password := []byte("pw")

	blob1, err := Encrypt("same input", password)
	require.NoError(t, err)
	blob2, err := Encrypt("same input", password)
	require.NoError(t, err)

	// Fresh salt and nonce per call.
	require.NotEqual(t, blob1, blob2)

	for _, blob := range []string{blob1, blob2} {
		got, err := Decrypt(blob, password)
		require.NoError(t, err)
		require.Equal(t, "same input", got)
	}
}

func TestPasswordHash_Deterministic(t *testing.T) {
	salt := GenerateSalt()

	assert.Equal(t, PasswordHash("pw", salt), PasswordHash("pw", salt))
	assert.NotEqual(t, PasswordHash("pw", salt), PasswordHash("other", salt))
	assert.NotEqual(t, PasswordHash("pw", salt), PasswordHash("pw", GenerateSalt()))
}

func TestMakeVerifier_VerifyPassword(t *testing.T) {
	verifier := MakeVerifier("abcd")

	assert.True(t, VerifyPassword("abcd", verifier))
	assert.False(t, VerifyPassword("abce", verifier))
	assert.False(t, VerifyPassword("abcd", "malformed-verifier"))
	assert.False(t, VerifyPassword("abcd", ""))
	assert.False(t, VerifyPassword("abcd", ":"))
}

func TestGenerateSalt(t *testing.T) {
	s1 := GenerateSalt()
	s2 := GenerateSalt()

	raw, err := base64.StdEncoding.DecodeString(s1)
	require.NoError(t, err)
	require.Len(t, raw, 16)
	require.NotEqual(t, s1, s2)
}

func TestContentWrappers_Idempotent(t *testing.T) {
	password := []byte("abcd")

	tagged, err := EncryptContent("secret thought", password)
	require.NoError(t, err)
	require.True(t, IsEncrypted(tagged))

	// Encrypting already-tagged content is a no-op.
	again, err := EncryptContent(tagged, password)
	require.NoError(t, err)
	require.Equal(t, tagged, again)

	plain, err := DecryptContent(tagged, password)
	require.NoError(t, err)
	require.Equal(t, "secret thought", plain)

	// Decrypting untagged content is a no-op.
	passthrough, err := DecryptContent("just plaintext", password)
	require.NoError(t, err)
	require.Equal(t, "just plaintext", passthrough)
}

func TestIsEncrypted(t *testing.T) {
	assert.False(t, IsEncrypted("plain"))
	assert.False(t, IsEncrypted(""))
	assert.True(t, IsEncrypted(Marker+"whatever"))
}
