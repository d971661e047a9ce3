package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// sessionTokenBytes is the entropy of a session token (256 bits).
const sessionTokenBytes = 32

// NewSessionToken returns a random opaque token for the session cookie.
func NewSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashToken computes the SHA-256 hash of a raw token for storage.
// Raw tokens are never stored, only their hashes.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// isWellFormedToken rejects cookie values that could never have been issued.
func isWellFormedToken(raw string) bool {
	if len(raw) != sessionTokenBytes*2 {
		return false
	}
	_, err := hex.DecodeString(raw)
	return err == nil
}
