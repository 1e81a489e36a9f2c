package otp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"membergate/pkg/platform/sentinel"
)

// MemoryStore keeps pending verifications in process memory for tests and
// dev runs.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	clock   func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock sets the clock used for expiry checks. Tests pin it.
func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewMemory constructs an empty in-memory code store.
func NewMemory(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]Record),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores a record under the verification ID.
func (s *MemoryStore) Save(ctx context.Context, verificationID string, rec Record, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ExpiresAt = s.clock().Add(ttl)
	s.records[verificationID] = rec
	return nil
}

// Find returns a live record.
func (s *MemoryStore) Find(ctx context.Context, verificationID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[verificationID]
	if !ok {
		return Record{}, fmt.Errorf("find verification %s: %w", verificationID, sentinel.ErrNotFound)
	}
	if s.clock().After(rec.ExpiresAt) {
		delete(s.records, verificationID)
		return Record{}, fmt.Errorf("find verification %s: %w", verificationID, sentinel.ErrNotFound)
	}
	return rec, nil
}

// Update overwrites an existing record, keeping its expiry.
func (s *MemoryStore) Update(ctx context.Context, verificationID string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[verificationID]
	if !ok {
		return fmt.Errorf("update verification %s: %w", verificationID, sentinel.ErrNotFound)
	}
	rec.ExpiresAt = existing.ExpiresAt
	s.records[verificationID] = rec
	return nil
}

// Delete removes a record.
func (s *MemoryStore) Delete(ctx context.Context, verificationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, verificationID)
	return nil
}
