// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/nawabco/waitlist/internal/model"
)

// SignupRequest is the body of POST /api/signup. Email is decoded as any so a
// non-string value can be told apart from malformed JSON.
type SignupRequest struct {
	Email any `json:"email"`
}

// EmailString returns the email when it is a JSON string.
func (r SignupRequest) EmailString() (string, bool) {
	s, ok := r.Email.(string)
	return s, ok
}

// MessageResponse is the body of every signup and admin response other than
// the list endpoint. Debug carries the underlying error text in development.
type MessageResponse struct {
	Message string `json:"message"`
	Debug   string `json:"debug,omitempty"`
}

// SignupResponse represents one waitlist entry in admin responses.
type SignupResponse struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	SubmissionDate time.Time `json:"submissionDate"`
}

// ToSignupResponse converts a model.Signup.
func ToSignupResponse(s *model.Signup) SignupResponse {
	return SignupResponse{
		ID:             s.ID,
		Email:          s.Email,
		SubmissionDate: s.SubmissionDate,
	}
}

// ToSignupListResponse converts a slice, never returning nil so the JSON body
// is [] rather than null.
func ToSignupListResponse(signups []*model.Signup) []SignupResponse {
	out := make([]SignupResponse, 0, len(signups))
	for _, s := range signups {
		out = append(out, ToSignupResponse(s))
	}
	return out
}
