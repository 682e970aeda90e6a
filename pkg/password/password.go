// Package password wraps the salted one-way hash used for stored credentials.
// Digests are persisted as a (salt, hash) pair; plaintext never leaves the
// call stack.
package password

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltBytes  = 16
	keyBytes   = 64
	iterations = 10000
)

const tempPasswordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// TempPasswordLength is the length of generated temporary passwords.
const TempPasswordLength = 10

// Hash derives a salted digest for the given plaintext. The returned salt and
// hash are hex encoded and safe to store.
func Hash(plaintext string) (salt string, hash string, err error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}

	salt = hex.EncodeToString(raw)
	hash = derive(plaintext, raw)
	return salt, hash, nil
}

// Verify reports whether the plaintext matches the stored (salt, hash) pair.
func Verify(plaintext, salt, hash string) bool {
	raw, err := hex.DecodeString(salt)
	if err != nil {
		return false
	}

	computed := derive(plaintext, raw)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// GenerateTemp produces a random alphanumeric temporary password.
func GenerateTemp() (string, error) {
	buf := make([]byte, TempPasswordLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate temporary password: %w", err)
	}

	for i, b := range buf {
		buf[i] = tempPasswordAlphabet[int(b)%len(tempPasswordAlphabet)]
	}

	return string(buf), nil
}

func derive(plaintext string, salt []byte) string {
	key := pbkdf2.Key([]byte(plaintext), salt, iterations, keyBytes, sha512.New)
	return hex.EncodeToString(key)
}
