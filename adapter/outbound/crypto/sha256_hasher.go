package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/avigneron/pumphouse/domain/port/outbound"
)

// sha256Hasher renders the single unsalted SHA-256 digest of the raw
// password bytes as lowercase hex. This is the stored-credential format of
// every deployed controller; changing it would invalidate existing user
// files, so it stays despite being a known weakness.
type sha256Hasher struct{}

func NewSHA256Hasher() outbound.PasswordHasher {
	return &sha256Hasher{}
}

func (h *sha256Hasher) Hash(password string) string {
	digest := sha256.Sum256([]byte(password))
	return hex.EncodeToString(digest[:])
}
