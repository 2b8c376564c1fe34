package platform

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

func NewID() string {
	return uuid.New().String()
}

// NewToken generates a random API token with the given prefix. The prefix is
// kept in clear alongside the hash so operators can tell keys apart.
func NewToken(prefix string) string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	return prefix + hex.EncodeToString(b)
}
