package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Hash algorithms recognized in stored auth profiles. New credentials are
// always written as pbkdf2-sha256; plain sha256 documents written by earlier
// tooling still verify.
const (
	HashAlgorithmPBKDF2 = "pbkdf2-sha256"
	HashAlgorithmSHA256 = "sha256"
)

const (
	pbkdf2Iterations = 600_000
	saltLength       = 16
	keyLength        = 32
)

// HashSecret derives a salted hash for a charge point's basic credential.
// Returns hex-encoded hash and salt.
func HashSecret(secret string) (hash, salt string, err error) {
	raw := make([]byte, saltLength)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(secret), raw, pbkdf2Iterations, keyLength, sha256.New)
	return hex.EncodeToString(key), hex.EncodeToString(raw), nil
}

// VerifySecret checks a presented secret against a stored hash/salt pair.
// Unknown algorithms never verify.
func VerifySecret(algorithm, hash, salt, secret string) bool {
	if hash == "" {
		return false
	}

	var candidate string
	switch algorithm {
	case HashAlgorithmPBKDF2:
		rawSalt, err := hex.DecodeString(salt)
		if err != nil {
			return false
		}
		key := pbkdf2.Key([]byte(secret), rawSalt, pbkdf2Iterations, keyLength, sha256.New)
		candidate = hex.EncodeToString(key)
	case HashAlgorithmSHA256, "":
		sum := sha256.Sum256([]byte(salt + secret))
		candidate = hex.EncodeToString(sum[:])
	default:
		return false
	}

	return subtle.ConstantTimeCompare([]byte(candidate), []byte(hash)) == 1
}
