package analysis

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the SHA-256 hex fingerprint used as the reputation lookup key.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
