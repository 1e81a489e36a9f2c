package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"membergate/pkg/platform/sentinel"
)

const keyPrefix = "challenge:"

// RedisStore persists challenge tokens in Redis with native TTL expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed token store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Save records a token with its TTL.
func (s *RedisStore) Save(ctx context.Context, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+token, "1", ttl).Err(); err != nil {
		return fmt.Errorf("save challenge token: %w", err)
	}
	return nil
}

// Consume removes a live token via GETDEL so two concurrent redeems cannot
// both succeed.
func (s *RedisStore) Consume(ctx context.Context, token string) error {
	err := s.client.GetDel(ctx, keyPrefix+token).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("consume token: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("consume token: %w", err)
	}
	return nil
}
