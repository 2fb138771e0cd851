// Package cache provides byte-level key/value stores with per-entry expiry.
//
// Every backend implements [Cache]. The manifest store in pkg/manifest
// encodes entries on top of it, so backends never see domain types.
//
// Backends:
//   - [FileCache]: one JSON file per key under a directory, for the CLI
//   - [MemoryCache]: in-process map, the server default
//   - [RedisCache]: shared store for multi-instance deployments
//   - [MongoCache]: shared store with a TTL index
//   - [NullCache]: stores nothing
//
// [Prefixed] namespaces the keys of any backend.
//
// A ttl of zero means the entry never expires. Expiry here is physical
// retention only; freshness of the stored data is decided by the caller.
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store safe for concurrent use.
type Cache interface {
	// Get returns the stored bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key for ttl (zero means no expiry).
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources held by the backend.
	Close() error
}
