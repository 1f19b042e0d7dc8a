// Package cache stores rendered artifacts keyed by the tree they were drawn
// from, so unchanged trees are not laid out or converted twice.
//
// Three implementations are provided:
//
//   - [MemoryCache] for the HTTP server
//   - [FileCache] for the CLI, under the data directory
//   - [NullCache] when caching is disabled
//
// Keys come from [RenderKey], which hashes the snapshot together with the
// render settings. Any edit to the tree changes the key, so entries never
// need explicit invalidation; the TTL only bounds disk and memory use.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// GetOrCompute returns the cached entry for key, or calls compute and caches
// its result. Cache failures are not fatal: the value is computed anyway.
func GetOrCompute(ctx context.Context, c Cache, key string, ttl time.Duration, compute func() ([]byte, error)) ([]byte, error) {
	if data, hit, err := c.Get(ctx, key); err == nil && hit {
		return data, nil
	}
	data, err := compute()
	if err != nil {
		return nil, err
	}
	_ = c.Set(ctx, key, data, ttl)
	return data, nil
}
