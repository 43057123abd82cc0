package database

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyRepository remembers the outcome of completed checkouts by
// idempotency key so a retried request can be answered without a second sale.
type IdempotencyRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyRepository(client *redis.Client, ttl time.Duration) *IdempotencyRepository {
	return &IdempotencyRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *IdempotencyRepository) getKey(key string) string {
	return "idem:checkout:" + key
}

// GetIdempotency returns the stored value, or "" when the key is unknown or expired.
func (r *IdempotencyRepository) GetIdempotency(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.getKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *IdempotencyRepository) SetIdempotency(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.getKey(key), value, r.ttl).Err()
}
