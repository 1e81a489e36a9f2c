package registration

import (
	"context"
	"time"
)

// StateStore holds in-flight wizard runs. Entries expire after the wizard
// TTL; a registrant who walks away mid-flow just starts over.
type StateStore interface {
	// Save creates a new wizard run with the given TTL.
	Save(ctx context.Context, reg Registration, ttl time.Duration) error

	// Find returns a live wizard run. Returns an error wrapping
	// sentinel.ErrNotFound when absent or expired.
	Find(ctx context.Context, id string) (Registration, error)

	// Update overwrites a wizard run without resetting its TTL.
	Update(ctx context.Context, reg Registration) error
}
