package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// refreshSecretSize is the raw entropy of an opaque refresh token.
// 48 bytes keeps a comfortable margin above the 40-byte floor the
// token format guarantees.
const refreshSecretSize = 48

// RefreshValueLen is the hex-encoded length of a refresh token value.
const RefreshValueLen = refreshSecretSize * 2

// NewRefreshValue generates an opaque refresh token value: 48 bytes of
// CSPRNG output, hex-encoded. The plaintext value is handed to the
// client exactly once; stores only ever see its hash.
func NewRefreshValue() (string, error) {
	var secret [refreshSecretSize]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(secret[:]), nil
}

// HashToken returns the SHA-256 digest of a token value, hex-encoded.
// Used as the storage key for both refresh records and blacklist
// entries so Redis never holds a usable credential.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
