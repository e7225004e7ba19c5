package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// refreshTokenBytes is the entropy of a refresh token (512 bits).
const refreshTokenBytes = 64

// RandomToken returns n bytes from crypto/rand, hex encoded.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
