package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// visitorHashLength is the number of hex characters kept from the digest.
// Long enough to keep collisions below noise for a single site's traffic,
// short enough to be cheap to index.
const visitorHashLength = 16

// maxSaltLength is the largest key BLAKE2b accepts.
const maxSaltLength = 64

// VisitorHasher derives pseudonymous visitor identifiers from request
// metadata. The identifier is a salted hash of client IP and User-Agent,
// so it is stable for the same visitor within a day but approximate:
// visitors behind a shared NAT or identical devices collide, one person on
// two networks counts twice, and rotating the salt resets all identities.
// No raw IP or User-Agent is ever stored.
type VisitorHasher struct {
	salt []byte
}

// NewVisitorHasher returns a hasher keyed with salt. Oversized salts are
// folded down to the key length BLAKE2b accepts; an empty salt yields an
// unkeyed (but still deterministic) hash.
func NewVisitorHasher(salt string) *VisitorHasher {
	key := []byte(salt)
	if len(key) > maxSaltLength {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &VisitorHasher{salt: key}
}

// Hash returns the visitor identifier for a client IP and User-Agent pair.
// Output is deterministic for the same inputs and salt.
func (h *VisitorHasher) Hash(clientIP, userAgent string) string {
	digest, _ := blake2b.New256(h.salt) // salt length is normalized in NewVisitorHasher
	digest.Write([]byte(clientIP))
	digest.Write([]byte{'|'})
	digest.Write([]byte(userAgent))
	return hex.EncodeToString(digest.Sum(nil))[:visitorHashLength]
}
