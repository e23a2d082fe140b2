package postgres

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tenancy/pkg/storage"
)

func TestNewRedisClient(t *testing.T) {
	t.Run("disabled without URL", func(t *testing.T) {
		client, err := NewRedisClient(context.Background(), storage.Config{})
		assert.NoError(t, err)
		assert.Nil(t, client)
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewRedisClient(context.Background(), storage.Config{RedisURL: "http://nope"})
		assert.Error(t, err)
	})

	t.Run("connects", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := storage.DefaultConfig()
		cfg.RedisURL = "redis://" + mr.Addr()

		client, err := NewRedisClient(context.Background(), cfg)
		require.NoError(t, err)
		defer client.Close()
		assert.NoError(t, client.Ping(context.Background()).Err())
	})

	t.Run("unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := NewRedisClient(context.Background(), storage.Config{RedisURL: "redis://" + addr})
		assert.Error(t, err)
	})
}
