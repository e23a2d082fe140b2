package profile

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tenancy/pkg/permissions"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, ttl), mr
}

func cachedProfile() *Profile {
	return &Profile{
		AccID:         accOne,
		Email:         "Jane@Example.com",
		IsManager:     true,
		VerboseStatus: StatusActive,
		Owners:        []Owner{{ID: accTwo, Email: "Jane@Example.com", IsPrincipal: true}},
		LicensedResources: []LicensedResource{
			{AccID: accTwo, TenantID: tenantA, Role: "tenant-manager", Permission: permissions.ReadWrite, Verified: true},
		},
	}
}

func TestRedisCache_RoundTrip(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	want := cachedProfile()
	require.NoError(t, cache.Set(ctx, want))
	assert.True(t, mr.Exists("tenancy:profile:jane@example.com"))

	got, ok, err := cache.Get(ctx, "  JANE@example.com ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestRedisCache_Expires(t *testing.T) {
	cache, mr := newTestCache(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, cachedProfile()))
	mr.FastForward(31 * time.Second)

	_, ok, err := cache.Get(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_CorruptEntryIsDropped(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set("tenancy:profile:jane@example.com", "{not json"))

	_, ok, err := cache.Get(context.Background(), "jane@example.com")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("tenancy:profile:jane@example.com"))
}

func TestRedisCache_Invalidate(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, cachedProfile()))
	require.NoError(t, cache.Invalidate(ctx, "JANE@example.com"))
	assert.False(t, mr.Exists("tenancy:profile:jane@example.com"))
}

func TestRedisCache_DefaultTTL(t *testing.T) {
	cache, mr := newTestCache(t, 0)
	require.NoError(t, cache.Set(context.Background(), cachedProfile()))
	assert.Equal(t, 2*time.Minute, mr.TTL("tenancy:profile:jane@example.com"))
}

func TestRedisCache_ServerDown(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	mr.Close()

	_, ok, err := cache.Get(context.Background(), "jane@example.com")
	assert.Error(t, err)
	assert.False(t, ok)
}
