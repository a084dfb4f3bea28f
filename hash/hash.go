// Package hash derives the short opaque tokens that address users on the bus
// and inside conversation identifiers.
package hash

import (
	"crypto/md5"
	"encoding/base64"
)

// Length of every token produced by a Hasher.
const Length = 22

// Hasher computes salted, truncated digests of usernames. The same
// (input, secret) pair always yields the same token, so tokens are usable
// both as NATS subjects and as fixed-position slots in conversation IDs.
type Hasher struct {
	secret string
}

func New(secret string) *Hasher {
	return &Hasher{secret: secret}
}

// Hash returns the first 22 characters of the base64-encoded MD5 digest of
// input concatenated with the configured secret. Not constant-time: these
// tokens are routing material, never compared against secrets.
func (h *Hasher) Hash(input string) string {
	sum := md5.Sum([]byte(input + h.secret))
	return base64.StdEncoding.EncodeToString(sum[:])[:Length]
}
