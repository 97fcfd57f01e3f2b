package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ContentKey returns a deterministic hash of parts, used to key cached
// results. Parts are NUL-separated so ("ab", "c") and ("a", "bc") differ.
func ContentKey(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:])
}
