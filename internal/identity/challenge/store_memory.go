package challenge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"membergate/pkg/platform/sentinel"
)

// MemoryStore keeps challenge tokens in process memory for tests and dev
// runs.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	clock  func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock sets the clock used for expiry checks. Tests pin it.
func WithClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewMemory constructs an empty in-memory token store.
func NewMemory(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		tokens: make(map[string]time.Time),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save records a token with its expiry.
func (s *MemoryStore) Save(ctx context.Context, token string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = s.clock().Add(ttl)
	return nil
}

// Consume removes a live token, failing on unknown or expired tokens.
func (s *MemoryStore) Consume(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.tokens[token]
	if !ok {
		return fmt.Errorf("consume token: %w", sentinel.ErrNotFound)
	}
	delete(s.tokens, token)
	if s.clock().After(expiresAt) {
		return fmt.Errorf("consume token: %w", sentinel.ErrExpired)
	}
	return nil
}
