// Package redis provides the Redis-backed shared cache used for remote service tokens.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/mmk-jobqueue/internal/core"
)

// DefaultPrefix namespaces every key written by TokenCache.
const DefaultPrefix = "mmk-jobqueue:"

// TokenCache implements core.CacheRepository on Redis.
type TokenCache struct {
	client redis.UniversalClient
	prefix string
}

var _ core.CacheRepository = (*TokenCache)(nil)

// NewTokenCache creates a TokenCache with the default key prefix.
func NewTokenCache(client redis.UniversalClient) *TokenCache {
	return &TokenCache{client: client, prefix: DefaultPrefix}
}

// NewTokenCacheWithPrefix creates a TokenCache with a custom key prefix.
func NewTokenCacheWithPrefix(client redis.UniversalClient, prefix string) *TokenCache {
	return &TokenCache{client: client, prefix: prefix}
}

func (c *TokenCache) key(k string) (string, error) {
	if k == "" {
		return "", errors.New("key cannot be empty")
	}
	return c.prefix + k, nil
}

// Set stores value under key. A zero TTL never expires.
func (c *TokenCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	k, err := c.key(key)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, k, value, ttl).Err()
}

// Get returns the value under key, or nil when it does not exist.
func (c *TokenCache) Get(ctx context.Context, key string) ([]byte, error) {
	k, err := c.key(key)
	if err != nil {
		return nil, err
	}
	result, err := c.client.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return result, nil
}

// Delete removes key and reports whether it existed.
func (c *TokenCache) Delete(ctx context.Context, key string) (bool, error) {
	k, err := c.key(key)
	if err != nil {
		return false, err
	}
	n, err := c.client.Del(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return n > 0, nil
}

// SetIfNotExists stores value only when key is absent, using SET NX with the TTL in one command.
func (c *TokenCache) SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	k, err := c.key(key)
	if err != nil {
		return false, err
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	status, err := c.client.SetArgs(ctx, k, value, redis.SetArgs{Mode: "NX", TTL: ttl}).Result()
	if err != nil {
		// NX miss comes back as a nil reply.
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis SET NX: %w", err)
	}
	return status == "OK", nil
}

// Health pings Redis.
func (c *TokenCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
