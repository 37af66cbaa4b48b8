package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/mmk-jobqueue/internal/testutil"
)

func TestTokenCache_SetGetDelete(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	cache := NewTokenCacheWithPrefix(client, "test:"+t.Name()+":")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "auth0:token:abc", []byte(`{"access_token":"x"}`), time.Minute))

	got, err := cache.Get(ctx, "auth0:token:abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"access_token":"x"}`, string(got))

	ttl := client.TTL(ctx, "test:"+t.Name()+":auth0:token:abc").Val()
	assert.True(t, ttl > 0 && ttl <= time.Minute)

	deleted, err := cache.Delete(ctx, "auth0:token:abc")
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err = cache.Get(ctx, "auth0:token:abc")
	require.NoError(t, err)
	assert.Nil(t, got)

	deleted, err = cache.Delete(ctx, "auth0:token:abc")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTokenCache_SetIfNotExists(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	cache := NewTokenCacheWithPrefix(client, "test:"+t.Name()+":")
	ctx := context.Background()
	t.Cleanup(func() { _, _ = cache.Delete(context.Background(), "lock") })

	ok, err := cache.SetIfNotExists(ctx, "lock", []byte("a"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.SetIfNotExists(ctx, "lock", []byte("b"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := cache.Get(ctx, "lock")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)
}

func TestTokenCache_EmptyKey(t *testing.T) {
	cache := NewTokenCache(nil)
	ctx := context.Background()

	require.Error(t, cache.Set(ctx, "", nil, 0))
	_, err := cache.Get(ctx, "")
	require.Error(t, err)
	_, err = cache.Delete(ctx, "")
	require.Error(t, err)
	_, err = cache.SetIfNotExists(ctx, "", nil, 0)
	require.Error(t, err)
}

func TestTokenCache_Health(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	require.NoError(t, NewTokenCache(client).Health(context.Background()))
}
