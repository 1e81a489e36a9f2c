package counter

import (
	"context"
	"fmt"
	"sync"

	"membergate/pkg/platform/sentinel"
)

// MemoryStore is an in-process counter for unit tests and single-node dev
// runs. The mutex makes each Increment an atomic read-modify-write, matching
// the transactional contract of the postgres store.
type MemoryStore struct {
	mu    sync.Mutex
	count int64

	// faultHook runs inside the critical section before the increment is
	// applied. A non-nil return aborts the attempt with no mutation, which is
	// how tests inject transaction conflicts.
	faultHook func(attempt int) error
	attempts  int
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithFaultHook injects per-attempt failures. The hook sees a 1-based attempt
// number counted across all Increment calls on this store.
func WithFaultHook(hook func(attempt int) error) MemoryOption {
	return func(s *MemoryStore) {
		s.faultHook = hook
	}
}

// WithStartValue seeds the counter, standing in for a store that already
// served allocations.
func WithStartValue(n int64) MemoryOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.count = n
		}
	}
}

// NewMemory constructs an in-memory counter store starting at zero.
func NewMemory(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Increment applies one atomic +1 and returns the new count.
func (s *MemoryStore) Increment(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts++
	if s.faultHook != nil {
		if err := s.faultHook(s.attempts); err != nil {
			return 0, fmt.Errorf("memory counter aborted: %w: %w", sentinel.ErrConflict, err)
		}
	}
	s.count++
	return s.count, nil
}

// Value returns the current count without mutating it. Test helper; callers
// in production code must only go through Increment.
func (s *MemoryStore) Value() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Attempts returns how many Increment attempts were made, including aborted
// ones.
func (s *MemoryStore) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}
