// Package registration drives the four-screen wizard: phone entry, code
// verification, profile form, success. The wizard state machine lives here;
// member-ID minting stays in internal/allocator.
package registration

import (
	"time"

	"membergate/internal/identity/challenge"
)

// State is the wizard screen the registration is on.
type State string

const (
	StatePhone   State = "phone"
	StateOTP     State = "otp"
	StateProfile State = "profile"
	StateDone    State = "done"
)

// Registration is one wizard run. It accumulates state as the registrant
// advances and is dropped after the wizard TTL.
type Registration struct {
	ID    string `json:"id"`
	State State  `json:"state"`

	// Challenge is the live anti-automation token for the phone screen. It
	// is replaced whenever a verification start fails.
	Challenge challenge.Token `json:"challenge"`

	// Phone in E.164-like form once submitted.
	Phone          string `json:"phone,omitempty"`
	VerificationID string `json:"verification_id,omitempty"`

	// UserID and SessionToken are set after code confirmation.
	UserID       string `json:"user_id,omitempty"`
	SessionToken string `json:"session_token,omitempty"`

	// MemberID is set when the wizard completes.
	MemberID string `json:"member_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile carries the form fields from the third screen.
type Profile struct {
	Title        string `json:"title"`
	Gender       string `json:"gender"`
	Surname      string `json:"surname"`
	FirstName    string `json:"first_name"`
	City         string `json:"city"`
	DOB          Date   `json:"dob"`
	Organization string `json:"organization"`
}

// Date is a year-month-day triple from the form's three selects.
type Date struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// StartResult is returned when a wizard run begins.
type StartResult struct {
	RegistrationID string          `json:"registration_id"`
	Challenge      challenge.Token `json:"challenge"`
}

// PhoneResult is returned when verification has started.
type PhoneResult struct {
	State               State     `json:"state"`
	VerificationExpires time.Time `json:"verification_expires"`
}

// CodeResult is returned when the code was confirmed.
type CodeResult struct {
	State        State  `json:"state"`
	UserID       string `json:"user_id"`
	SessionToken string `json:"session_token"`
}

// ProfileResult is returned when the member record was written.
type ProfileResult struct {
	MemberID    string `json:"member_id"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
}

// Status reports where a wizard run currently is.
type Status struct {
	State    State  `json:"state"`
	MemberID string `json:"member_id,omitempty"`
}
