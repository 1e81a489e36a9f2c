package member

import (
	"context"
	"fmt"
	"sync"

	"membergate/pkg/platform/sentinel"
)

// MemoryStore keeps members in process memory for tests and dev runs.
type MemoryStore struct {
	mu      sync.RWMutex
	byUser  map[string]Member
	byPhone map[string]string
}

// NewMemory constructs an empty in-memory member store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		byUser:  make(map[string]Member),
		byPhone: make(map[string]string),
	}
}

// Save persists a new member, enforcing phone and user uniqueness.
func (s *MemoryStore) Save(ctx context.Context, m Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUser[m.UserID]; exists {
		return fmt.Errorf("save member %s: %w", m.UserID, sentinel.ErrConflict)
	}
	if _, exists := s.byPhone[m.PhoneNumber]; exists {
		return fmt.Errorf("save member phone %s: %w", m.PhoneNumber, sentinel.ErrConflict)
	}
	s.byUser[m.UserID] = m
	s.byPhone[m.PhoneNumber] = m.UserID
	return nil
}

// ExistsByPhone reports whether the phone number is already registered.
func (s *MemoryStore) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.byPhone[phone]
	return exists, nil
}

// FindByUserID returns the member keyed by user ID.
func (s *MemoryStore) FindByUserID(ctx context.Context, userID string) (Member, error) {
	if err := ctx.Err(); err != nil {
		return Member{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byUser[userID]
	if !ok {
		return Member{}, fmt.Errorf("find member %s: %w", userID, sentinel.ErrNotFound)
	}
	return m, nil
}
