package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"membergate/pkg/platform/sentinel"
)

const redisKeyPrefix = "registration:"

// RedisStateStore persists wizard runs in Redis so a restart does not
// strand registrants mid-flow. Entries carry the wizard TTL and are not
// refreshed on update.
type RedisStateStore struct {
	client *redis.Client
}

// NewRedisStateStore constructs a Redis-backed wizard store.
func NewRedisStateStore(client *redis.Client) (*RedisStateStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &RedisStateStore{client: client}, nil
}

func (s *RedisStateStore) Save(ctx context.Context, reg Registration, ttl time.Duration) error {
	payload, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("marshal registration: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+reg.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("save registration: %w", err)
	}
	return nil
}

func (s *RedisStateStore) Find(ctx context.Context, id string) (Registration, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Registration{}, fmt.Errorf("find registration %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return Registration{}, fmt.Errorf("find registration: %w", err)
	}
	var reg Registration
	if err := json.Unmarshal(payload, &reg); err != nil {
		return Registration{}, fmt.Errorf("unmarshal registration: %w", err)
	}
	return reg, nil
}

func (s *RedisStateStore) Update(ctx context.Context, reg Registration) error {
	payload, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("marshal registration: %w", err)
	}
	ok, err := s.client.SetXX(ctx, redisKeyPrefix+reg.ID, payload, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	if !ok {
		return fmt.Errorf("update registration %s: %w", reg.ID, sentinel.ErrNotFound)
	}
	return nil
}
