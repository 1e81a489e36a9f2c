// Package member holds the persisted registration record and its stores.
package member

import "time"

// DefaultOrganization is stored when the registrant leaves the optional
// organization field empty.
const DefaultOrganization = "Not provided"

// Member is the registration record, created exactly once per completed
// wizard run. It is never updated or deleted by this service.
type Member struct {
	// UserID is the identity-provider subject established at OTP
	// confirmation; it is the storage key.
	UserID string `json:"user_id"`

	// MemberID is the minted identifier, e.g. "DF12345624".
	MemberID string `json:"member_id"`

	// PhoneNumber in E.164-like form with the fixed country prefix,
	// e.g. "+919876543210".
	PhoneNumber string `json:"phone_number"`

	Title     string `json:"title"`
	Gender    string `json:"gender"`
	Surname   string `json:"surname"`
	FirstName string `json:"first_name"`

	// FullName is composed as "<Title> <FirstName> <Surname>".
	FullName string `json:"full_name"`

	City string `json:"city"`

	// DateOfBirth as "YYYY-MM-DD".
	DateOfBirth string `json:"dob"`

	Organization string    `json:"organization"`
	CreatedAt    time.Time `json:"created_at"`
}
