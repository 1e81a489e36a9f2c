// Package audit publishes registration lifecycle events. Events are
// PII-light: phone numbers and profile fields never leave the service
// through this path.
package audit

import (
	"context"
	"time"
)

// Event types emitted by the registration flow.
const (
	EventRegistrationStarted = "registration_started"
	EventDuplicatePhone      = "duplicate_phone_rejected"
	EventVerificationStarted = "verification_started"
	EventCodeConfirmed       = "code_confirmed"
	EventMemberCreated       = "member_created"
	EventAllocationFailed    = "allocation_failed"
	EventMemberWriteFailed   = "member_write_failed"
	EventChallengeReissued   = "challenge_reissued"
)

// Event is one registration lifecycle fact.
type Event struct {
	Type           string    `json:"type"`
	RegistrationID string    `json:"registration_id"`
	UserID         string    `json:"user_id,omitempty"`
	MemberID       string    `json:"member_id,omitempty"`
	RequestID      string    `json:"request_id,omitempty"`
	DevicePlatform string    `json:"device_platform,omitempty"`
	At             time.Time `json:"at"`
}

// Publisher emits events. Implementations must not block registration
// progress on delivery; callers treat Emit errors as log-worthy only.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
