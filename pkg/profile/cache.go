package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const cacheKeyPrefix = "tenancy:profile:"

// Cache stores profile snapshots between requests
type Cache interface {
	Get(ctx context.Context, email string) (*Profile, bool, error)
	Set(ctx context.Context, p *Profile) error
	Invalidate(ctx context.Context, email string) error
}

// RedisCache keeps JSON profile snapshots in Redis under a TTL
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCache creates a cache; a non-positive ttl defaults to two minutes
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(email string) string {
	return cacheKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// Get returns the cached snapshot; ok is false on a miss
func (c *RedisCache) Get(ctx context.Context, email string) (*Profile, bool, error) {
	key := cacheKey(email)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		// drop the corrupt entry so the next request repopulates it
		c.client.Del(ctx, key)
		return nil, false, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &p, true, nil
}

// Set stores p under its email
func (c *RedisCache) Set(ctx context.Context, p *Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	return c.client.Set(ctx, cacheKey(p.Email), data, c.ttl).Err()
}

// Invalidate drops the snapshot for email
func (c *RedisCache) Invalidate(ctx context.Context, email string) error {
	return c.client.Del(ctx, cacheKey(email)).Err()
}
