package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100000
	pbkdf2SaltSize   = 16
	pbkdf2KeySize    = 32
)

var ErrMalformedHash = errors.New("malformed hash")

// HashSecret derives a PBKDF2-SHA256 key and encodes it as "saltHex$keyHex".
func HashSecret(secret string) (string, error) {
	salt := make([]byte, pbkdf2SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return encodeHash(salt, deriveKey(secret, salt)), nil
}

// VerifySecret compares secret against a value produced by HashSecret in constant time.
func VerifySecret(encoded string, secret string) (bool, error) {
	saltHex, keyHex, ok := strings.Cut(encoded, "$")
	if !ok {
		return false, ErrMalformedHash
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false, ErrMalformedHash
	}
	expected, err := hex.DecodeString(keyHex)
	if err != nil || len(expected) == 0 {
		return false, ErrMalformedHash
	}
	actual := pbkdf2.Key([]byte(secret), salt, pbkdf2Iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(expected, actual) == 1, nil
}

func deriveKey(secret string, salt []byte) []byte {
	return pbkdf2.Key([]byte(secret), salt, pbkdf2Iterations, pbkdf2KeySize, sha256.New)
}

func encodeHash(salt []byte, key []byte) string {
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(key)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
