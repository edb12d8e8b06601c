// Package model defines domain entities for the application.
package model

import (
	"time"
)

// Signup is one waitlist entry: an email address and the time it was accepted.
// Records are created by the signup flow, read by the admin API and deleted by
// it; they are never updated in place.
type Signup struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	SubmissionDate time.Time `json:"submissionDate"`
}

// IsValid reports whether the record satisfies the stored-record invariant.
func (s *Signup) IsValid() bool {
	return s != nil && s.ID != "" && s.Email != "" && !s.SubmissionDate.IsZero()
}

// EmailKind identifies which transactional email was sent.
type EmailKind string

const (
	EmailKindConfirmation EmailKind = "confirmation"
	EmailKindAdminAlert   EmailKind = "admin_alert"
)

// SignupOutcome labels how a signup request ended, for metrics.
type SignupOutcome string

const (
	OutcomeAccepted    SignupOutcome = "accepted"
	OutcomeInvalid     SignupOutcome = "invalid"
	OutcomeRateLimited SignupOutcome = "rate_limited"
	OutcomeDuplicate   SignupOutcome = "duplicate"
	OutcomeStoreError  SignupOutcome = "store_error"
)
