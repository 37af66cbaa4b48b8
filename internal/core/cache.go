package core

import (
	"context"
	"time"
)

// CacheRepository is a shared key/value cache. The Auth0 client keeps its
// machine-to-machine token here so every process reuses one token.
type CacheRepository interface {
	// Set stores a value with the given TTL. A zero TTL never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the value for key, or nil when it is missing or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)

	// SetIfNotExists atomically stores value only when key is absent.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Health checks the cache connection.
	Health(ctx context.Context) error
}
