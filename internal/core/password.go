package core

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	secretKeyBytes  = 16
	pbkdf2Iteration = 4096
	pbkdf2KeyLen    = 32
)

// NewSecretKey generates the per-account key material used to salt the
// trade password hash.
func NewSecretKey() (string, error) {
	buf := make([]byte, secretKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashPassword derives the stored trade-password hash from the plain
// password and the account's secret key. Deterministic for a fixed key so
// permission checks compare by equality.
func HashPassword(password, secretKey string) string {
	derived := pbkdf2.Key([]byte(password), []byte(secretKey), pbkdf2Iteration, pbkdf2KeyLen, sha256.New)
	return hex.EncodeToString(derived)
}
