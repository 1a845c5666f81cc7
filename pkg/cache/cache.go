// Package cache stores export artifacts and overlay responses between runs.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: JSON entries under a local directory (CLI default)
//   - [RedisCache]: shared cache for several workers or the serve API
//   - [NullCache]: caching disabled
//
// Keys come from a [Keyer] so every producer derives them the same way:
//
//	k := cache.NewDefaultKeyer()
//	key := k.ArtifactKey(cache.Hash(markup), cache.ArtifactKeyOpts{Mode: "filled", Format: "png", Scale: 2})
//	data, ok, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// Default time-to-live per entry kind.
const (
	TTLArtifact = 7 * 24 * time.Hour
	TTLOverlay  = 24 * time.Hour
	TTLHTTP     = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiration.
// A ttl of 0 means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NullCache is a no-op cache that never stores anything.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache {
	return &NullCache{}
}

// Get always returns a cache miss.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set does nothing.
func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete does nothing.
func (c *NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Close does nothing.
func (c *NullCache) Close() error {
	return nil
}

var _ Cache = (*NullCache)(nil)
