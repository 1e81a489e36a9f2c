// Package identity defines the identity-provider contract the registration
// wizard depends on: an anti-automation challenge, phone verification via a
// one-time code, and the authenticated session that confirmation yields.
//
// The wizard never talks to SMS delivery or CAPTCHA machinery directly; those
// stay behind the ports in the subpackages.
package identity

import (
	"context"
	"time"

	"membergate/internal/identity/challenge"
)

// PendingVerification is the handle returned when verification starts. The
// caller keeps only the ID; the code travels out of band to the phone.
type PendingVerification struct {
	ID        string
	Phone     string
	ExpiresAt time.Time
}

// Session is the authenticated identity context established by a successful
// code confirmation.
type Session struct {
	UserID    string
	Phone     string
	Token     string
	ExpiresAt time.Time
}

// Provider starts and confirms phone verifications.
type Provider interface {
	// StartVerification redeems the one-time challenge token, sends a code to
	// the phone, and returns the pending verification handle.
	StartVerification(ctx context.Context, e164Phone string, token challenge.Token) (PendingVerification, error)

	// Confirm checks a user-entered code against the pending verification.
	// A mismatch is a coded unauthorized error and leaves the verification
	// pending (until its attempt budget or TTL runs out).
	Confirm(ctx context.Context, verificationID, code string) (Session, error)
}
