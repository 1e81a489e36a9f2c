//go:build integration

package otp_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"membergate/internal/identity/otp"
	"membergate/pkg/platform/sentinel"
	"membergate/pkg/testutil/containers"
)

type RedisCodeStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *otp.RedisStore
}

func TestRedisCodeStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCodeStoreSuite))
}

func (s *RedisCodeStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = otp.NewRedis(s.redis.Client)
}

func (s *RedisCodeStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCodeStoreSuite) record() otp.Record {
	return otp.Record{
		Phone:     "+919876543210",
		CodeHash:  []byte("$2a$10$fakehashfortests"),
		ExpiresAt: time.Now().Add(5 * time.Minute).UTC().Truncate(time.Millisecond),
	}
}

func (s *RedisCodeStoreSuite) TestSaveAndFind() {
	ctx := context.Background()

	s.Require().NoError(s.store.Save(ctx, "ver-1", s.record(), 5*time.Minute))

	rec, err := s.store.Find(ctx, "ver-1")
	s.Require().NoError(err)
	s.Equal("+919876543210", rec.Phone)
	s.Zero(rec.Attempts)

	_, err = s.store.Find(ctx, "missing")
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *RedisCodeStoreSuite) TestUpdateKeepsTTL() {
	ctx := context.Background()

	rec := s.record()
	s.Require().NoError(s.store.Save(ctx, "ver-1", rec, time.Minute))

	rec.Attempts = 2
	s.Require().NoError(s.store.Update(ctx, "ver-1", rec))

	found, err := s.store.Find(ctx, "ver-1")
	s.Require().NoError(err)
	s.Equal(2, found.Attempts)

	ttl, err := s.redis.Client.TTL(ctx, "verification:ver-1").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)

	s.Require().Error(s.store.Update(ctx, "missing", rec))
}

func (s *RedisCodeStoreSuite) TestDelete() {
	ctx := context.Background()

	s.Require().NoError(s.store.Save(ctx, "ver-1", s.record(), time.Minute))
	s.Require().NoError(s.store.Delete(ctx, "ver-1"))

	_, err := s.store.Find(ctx, "ver-1")
	s.True(errors.Is(err, sentinel.ErrNotFound))
}
