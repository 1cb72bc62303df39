// Package util holds the id generator shared by every store.
package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a 128-bit random identifier, hex-encoded and tagged with a
// short entity prefix ("svc", "pol", "sub", "ast", ...) so ids stay
// recognizable in logs and database dumps. An empty prefix yields the bare
// hex string.
func NewID(prefix string) string {
	raw := make([]byte, 16)
	_, _ = rand.Read(raw)
	id := hex.EncodeToString(raw)
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
