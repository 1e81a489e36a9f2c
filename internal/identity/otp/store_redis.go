package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"membergate/pkg/platform/sentinel"
)

const keyPrefix = "verification:"

// RedisStore persists pending verifications in Redis with native TTL expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed code store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Save stores a record as JSON with the given TTL.
func (s *RedisStore) Save(ctx context.Context, verificationID string, rec Record, ttl time.Duration) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+verificationID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("save verification: %w", err)
	}
	return nil
}

// Find returns a live record; redis expiry handles the TTL.
func (s *RedisStore) Find(ctx context.Context, verificationID string) (Record, error) {
	payload, err := s.client.Get(ctx, keyPrefix+verificationID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, fmt.Errorf("find verification %s: %w", verificationID, sentinel.ErrNotFound)
		}
		return Record{}, fmt.Errorf("find verification: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal verification: %w", err)
	}
	return rec, nil
}

// Update overwrites a record, keeping the remaining TTL.
func (s *RedisStore) Update(ctx context.Context, verificationID string, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	ok, err := s.client.SetXX(ctx, keyPrefix+verificationID, payload, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("update verification: %w", err)
	}
	if !ok {
		return fmt.Errorf("update verification %s: %w", verificationID, sentinel.ErrNotFound)
	}
	return nil
}

// Delete removes a record.
func (s *RedisStore) Delete(ctx context.Context, verificationID string) error {
	if err := s.client.Del(ctx, keyPrefix+verificationID).Err(); err != nil {
		return fmt.Errorf("delete verification: %w", err)
	}
	return nil
}
