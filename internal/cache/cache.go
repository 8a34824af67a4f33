// Package cache holds rendered merged records on the read side. The merge
// engine itself never caches: recomputation is cheap relative to I/O, and the
// engines stay pure. Only the query service in front of the store uses this.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching rendered reads.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// BorrowerKey generates the cache key for a borrower's merged record.
// Refs are normalized names (PII), so they are hashed before touching disk.
func BorrowerKey(borrowerRef string) string {
	hash := sha256.Sum256([]byte(borrowerRef))
	return "factfuse:v1:borrower:" + hex.EncodeToString(hash[:])
}

// ApplicationKey generates the cache key for an application's merged record.
func ApplicationKey(loanNumber string) string {
	hash := sha256.Sum256([]byte(loanNumber))
	return "factfuse:v1:application:" + hex.EncodeToString(hash[:])
}
