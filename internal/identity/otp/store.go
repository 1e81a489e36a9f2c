package otp

import (
	"context"
	"time"
)

// Record is the server-side half of a pending verification. Only the bcrypt
// hash of the code is stored.
type Record struct {
	Phone     string    `json:"phone"`
	CodeHash  []byte    `json:"code_hash"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CodeStore persists pending verification records until they are confirmed,
// exhausted, or expire.
type CodeStore interface {
	// Save stores a record under the verification ID with the given TTL.
	Save(ctx context.Context, verificationID string, rec Record, ttl time.Duration) error

	// Find returns the record for a verification ID. Returns an error
	// wrapping sentinel.ErrNotFound when absent or expired.
	Find(ctx context.Context, verificationID string) (Record, error)

	// Update overwrites a record without resetting its TTL. Used for the
	// attempt counter.
	Update(ctx context.Context, verificationID string, rec Record) error

	// Delete removes a record.
	Delete(ctx context.Context, verificationID string) error
}
