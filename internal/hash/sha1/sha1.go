// Package sha1 provides the SHA-1 content hasher used for stored filenames.
package sha1

import (
	"crypto/sha1" //nolint:gosec // content addressing, not security
	"encoding/hex"
)

// Hasher implements spider.Hasher using SHA-1.
type Hasher struct{}

// New returns a SHA-1 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a lowercase hex digest.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha1.Sum(data) //nolint:gosec // content addressing, not security
	return hex.EncodeToString(sum[:]), nil
}
