package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestIdempotencyRepository(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewIdempotencyRepository(client, time.Hour)
	ctx := context.Background()

	val, err := repo.GetIdempotency(ctx, "k1")
	require.NoError(t, err)
	assert.Empty(t, val)

	require.NoError(t, repo.SetIdempotency(ctx, "k1", `{"sale_id":"V-1"}`))
	assert.True(t, mr.Exists("idem:checkout:k1"))

	val, err = repo.GetIdempotency(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, `{"sale_id":"V-1"}`, val)

	mr.FastForward(time.Hour + time.Second)
	val, err = repo.GetIdempotency(ctx, "k1")
	require.NoError(t, err)
	assert.Empty(t, val, "entry expires after the ttl")
}

func TestIdempotencyRepository_RedisDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewIdempotencyRepository(client, time.Hour)
	mr.Close()

	_, err := repo.GetIdempotency(context.Background(), "k1")
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = client.Close()

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}
