package registration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"membergate/pkg/platform/sentinel"
)

// MemoryStateStore keeps wizard runs in process memory for tests and dev
// runs.
type MemoryStateStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	clock   func() time.Time
}

type memoryEntry struct {
	reg       Registration
	expiresAt time.Time
}

// MemoryOption configures a MemoryStateStore.
type MemoryOption func(*MemoryStateStore)

// WithClock sets the clock used for expiry checks. Tests pin it.
func WithClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStateStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewMemoryStateStore constructs an empty in-memory wizard store.
func NewMemoryStateStore(opts ...MemoryOption) *MemoryStateStore {
	s := &MemoryStateStore{
		entries: make(map[string]memoryEntry),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save creates a wizard run with its expiry.
func (s *MemoryStateStore) Save(ctx context.Context, reg Registration, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[reg.ID] = memoryEntry{reg: reg, expiresAt: s.clock().Add(ttl)}
	return nil
}

// Find returns a live wizard run.
func (s *MemoryStateStore) Find(ctx context.Context, id string) (Registration, error) {
	if err := ctx.Err(); err != nil {
		return Registration{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return Registration{}, fmt.Errorf("find registration %s: %w", id, sentinel.ErrNotFound)
	}
	if s.clock().After(entry.expiresAt) {
		delete(s.entries, id)
		return Registration{}, fmt.Errorf("find registration %s: %w", id, sentinel.ErrNotFound)
	}
	return entry.reg, nil
}

// Update overwrites a wizard run, keeping its expiry.
func (s *MemoryStateStore) Update(ctx context.Context, reg Registration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[reg.ID]
	if !ok {
		return fmt.Errorf("update registration %s: %w", reg.ID, sentinel.ErrNotFound)
	}
	entry.reg = reg
	s.entries[reg.ID] = entry
	return nil
}
