// Package challenge implements the anti-automation step required before
// phone verification can start. A token is issued to the client, bound to a
// TTL, and consumed exactly once; after a failed verification start the
// orchestrator throws the token away and issues a fresh one.
package challenge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Token is an opaque one-time verifier token.
type Token string

// Store persists issued tokens until they are consumed or expire.
type Store interface {
	// Save records a freshly issued token with its TTL.
	Save(ctx context.Context, token string, ttl time.Duration) error

	// Consume atomically removes a live token. Returns an error wrapping
	// sentinel.ErrNotFound when the token is unknown, expired, or already
	// consumed.
	Consume(ctx context.Context, token string) error
}

// Verifier issues and redeems challenge tokens.
type Verifier struct {
	store Store
	ttl   time.Duration
}

// NewVerifier constructs a Verifier over the given token store.
func NewVerifier(store Store, ttl time.Duration) (*Verifier, error) {
	if store == nil {
		return nil, fmt.Errorf("challenge store is required")
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Verifier{store: store, ttl: ttl}, nil
}

// Issue creates a new one-time token.
func (v *Verifier) Issue(ctx context.Context) (Token, error) {
	token := uuid.NewString()
	if err := v.store.Save(ctx, token, v.ttl); err != nil {
		return "", fmt.Errorf("issue challenge token: %w", err)
	}
	return Token(token), nil
}

// Redeem consumes a token. Each token redeems at most once.
func (v *Verifier) Redeem(ctx context.Context, token Token) error {
	if token == "" {
		return fmt.Errorf("redeem challenge token: empty token")
	}
	if err := v.store.Consume(ctx, string(token)); err != nil {
		return fmt.Errorf("redeem challenge token: %w", err)
	}
	return nil
}
