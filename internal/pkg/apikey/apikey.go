package apikey

import (
	"crypto/rand"
	"encoding/hex"
)

// New generates a 64-character hex API key from 32 random bytes.
func New() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "pk_" + hex.EncodeToString(b), nil
}
