package member

import "context"

// Store is interface-driven to keep the registration flow testable and to
// allow swapping in-memory and PostgreSQL persistence without rewiring
// business code.
type Store interface {
	// Save persists a new member. Returns an error wrapping
	// sentinel.ErrConflict when the phone number or user ID already exists.
	Save(ctx context.Context, m Member) error

	// ExistsByPhone reports whether a member with the given phone number is
	// already registered. Used for the best-effort duplicate pre-check before
	// verification starts; the unique index behind Save is the source of
	// truth.
	ExistsByPhone(ctx context.Context, phone string) (bool, error)

	// FindByUserID returns the member keyed by the identity-provider subject.
	// Returns an error wrapping sentinel.ErrNotFound when absent.
	FindByUserID(ctx context.Context, userID string) (Member, error)
}
