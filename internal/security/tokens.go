package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
)

const sessionTokenBytes = 32

// GenerateSessionToken returns a fresh high-entropy opaque session token
// (32 random bytes, hex-encoded). Uses crypto/rand.
func GenerateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// TokenEqual performs constant-time comparison of a stored session token with
// a client-provided one. Returns true only if they match.
func TokenEqual(storedToken, providedToken string) bool {
	return subtle.ConstantTimeCompare([]byte(storedToken), []byte(providedToken)) == 1
}
