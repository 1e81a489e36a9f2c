//go:build integration

package challenge_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"membergate/internal/identity/challenge"
	"membergate/pkg/platform/sentinel"
	"membergate/pkg/testutil/containers"
)

type RedisChallengeSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *challenge.RedisStore
}

func TestRedisChallengeSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisChallengeSuite))
}

func (s *RedisChallengeSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = challenge.NewRedis(s.redis.Client)
}

func (s *RedisChallengeSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisChallengeSuite) TestConsumeOnce() {
	ctx := context.Background()

	s.Require().NoError(s.store.Save(ctx, "token-1", time.Minute))
	s.Require().NoError(s.store.Consume(ctx, "token-1"))

	err := s.store.Consume(ctx, "token-1")
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *RedisChallengeSuite) TestConcurrentConsume() {
	ctx := context.Background()

	s.Require().NoError(s.store.Save(ctx, "token-1", time.Minute))

	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.store.Consume(ctx, "token-1") == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	// GETDEL guarantees a single winner.
	s.Equal(int32(1), succeeded.Load())
}

func (s *RedisChallengeSuite) TestExpiry() {
	ctx := context.Background()

	s.Require().NoError(s.store.Save(ctx, "token-1", time.Second))
	time.Sleep(1500 * time.Millisecond)

	err := s.store.Consume(ctx, "token-1")
	s.True(errors.Is(err, sentinel.ErrNotFound))
}
