// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nawabco/waitlist/internal/metrics"
	"github.com/nawabco/waitlist/internal/model"
	"github.com/nawabco/waitlist/internal/ratelimit"
	"github.com/nawabco/waitlist/internal/repository"
)

// Service errors.
var (
	ErrEmailRequired  = errors.New("email is required")
	ErrInvalidEmail   = errors.New("invalid email format")
	ErrRateLimited    = errors.New("too many signup attempts")
	ErrDuplicateEmail = errors.New("email already on the waitlist")
	ErrSignupNotFound = errors.New("signup not found")
	ErrPersistence    = errors.New("signup store error")
)

// notifyTimeout bounds the time spent sending both emails for one signup.
const notifyTimeout = 30 * time.Second

// RateLimitError is returned when a client is inside its cooldown window.
// It matches ErrRateLimited with errors.Is.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrRateLimited, e.RetryAfter)
}

// Is reports whether target is ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// SignupStore persists signups. Implemented by *repository.Repository.
type SignupStore interface {
	InsertSignup(ctx context.Context, email string, submittedAt time.Time) (*model.Signup, error)
	FindSignupByEmail(ctx context.Context, email string) (*model.Signup, error)
	ListSignups(ctx context.Context) ([]*model.Signup, error)
	DeleteSignup(ctx context.Context, id string) (int64, error)
}

// Notifier sends the transactional emails. Implemented by the mailer package.
type Notifier interface {
	SendUserConfirmation(ctx context.Context, email string) error
	SendAdminAlert(ctx context.Context, adminAddress, email string, at time.Time) error
}

// SignupService runs the signup flow and the admin operations.
type SignupService struct {
	store      SignupStore
	notifier   Notifier
	limiter    ratelimit.Limiter
	adminEmail string
	metrics    metrics.Recorder
	logger     *slog.Logger
	now        func() time.Time
}

// NewSignupService creates a new SignupService. adminEmail may be empty, in
// which case no admin alerts are sent.
func NewSignupService(
	store SignupStore,
	notifier Notifier,
	limiter ratelimit.Limiter,
	adminEmail string,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *SignupService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &SignupService{
		store:      store,
		notifier:   notifier,
		limiter:    limiter,
		adminEmail: strings.TrimSpace(adminEmail),
		metrics:    recorder,
		logger:     logger,
		now:        time.Now,
	}
}

// SignupInput defines input for a signup attempt.
type SignupInput struct {
	Email string
	// ClientKey identifies the caller for the cooldown check.
	ClientKey string
}

// SignupResult is a persisted signup plus the outcome of its emails.
type SignupResult struct {
	Signup *model.Signup
	// NotificationErr is non-nil when either email failed. The signup is
	// stored regardless.
	NotificationErr error
}

// EmailDelayed reports whether any confirmation email failed to send.
func (r *SignupResult) EmailDelayed() bool {
	return r.NotificationErr != nil
}

// Signup validates, rate limits, de-duplicates and stores an email, then
// sends the confirmation and admin alert. Steps short-circuit on the first
// failure; email failures are reported in the result, never as an error.
func (s *SignupService) Signup(ctx context.Context, input SignupInput) (*SignupResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveSignupDuration(time.Since(start))
	}()

	email := strings.TrimSpace(input.Email)
	if email == "" {
		s.metrics.IncSignup(string(model.OutcomeInvalid))
		return nil, ErrEmailRequired
	}
	if !ValidateEmail(email) {
		s.metrics.IncSignup(string(model.OutcomeInvalid))
		return nil, ErrInvalidEmail
	}

	if err := s.checkCooldown(ctx, input.ClientKey); err != nil {
		s.metrics.IncSignup(string(model.OutcomeRateLimited))
		return nil, err
	}

	if _, err := s.store.FindSignupByEmail(ctx, email); err == nil {
		s.metrics.IncSignup(string(model.OutcomeDuplicate))
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrSignupNotFound) {
		s.metrics.IncSignup(string(model.OutcomeStoreError))
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	signup, err := s.store.InsertSignup(ctx, email, s.now().UTC())
	if err != nil {
		// Lost a race with a concurrent signup for the same address.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.metrics.IncSignup(string(model.OutcomeDuplicate))
			return nil, ErrDuplicateEmail
		}
		s.metrics.IncSignup(string(model.OutcomeStoreError))
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.metrics.IncSignup(string(model.OutcomeAccepted))

	s.logger.Info("signup_created",
		"signup_id", signup.ID,
	)

	return &SignupResult{
		Signup:          signup,
		NotificationErr: s.notify(ctx, signup),
	}, nil
}

// checkCooldown returns a *RateLimitError when the client must wait.
// Limiter errors are logged and the attempt is allowed.
func (s *SignupService) checkCooldown(ctx context.Context, clientKey string) error {
	decision, err := s.limiter.Allow(ctx, clientKey, s.now())
	if err != nil {
		s.logger.Error("rate limit check failed", "error", err)
		return nil
	}
	if !decision.Allowed {
		return &RateLimitError{RetryAfter: decision.RetryAfter}
	}
	return nil
}

// notify sends both emails independently and joins their errors. It detaches
// from the request context so a client disconnect does not abort delivery for
// a record that is already stored.
func (s *SignupService) notify(ctx context.Context, signup *model.Signup) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	var errs []error

	if err := s.notifier.SendUserConfirmation(ctx, signup.Email); err != nil {
		errs = append(errs, fmt.Errorf("confirmation: %w", err))
		s.recordNotification(model.EmailKindConfirmation, signup, err)
	} else {
		s.recordNotification(model.EmailKindConfirmation, signup, nil)
	}

	if s.adminEmail != "" {
		err := s.notifier.SendAdminAlert(ctx, s.adminEmail, signup.Email, signup.SubmissionDate)
		if err != nil {
			errs = append(errs, fmt.Errorf("admin alert: %w", err))
		}
		s.recordNotification(model.EmailKindAdminAlert, signup, err)
	}

	return errors.Join(errs...)
}

func (s *SignupService) recordNotification(kind model.EmailKind, signup *model.Signup, err error) {
	if err == nil {
		s.metrics.IncNotification(string(kind), "sent")
		return
	}

	s.metrics.IncNotification(string(kind), "failed")
	s.logger.Error("notification_failed",
		"email_kind", string(kind),
		"signup_id", signup.ID,
		"error", err,
	)
}

// ListSignups returns every signup, newest first.
func (s *SignupService) ListSignups(ctx context.Context) ([]*model.Signup, error) {
	signups, err := s.store.ListSignups(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return signups, nil
}

// DeleteSignup removes one signup. Unknown IDs return ErrSignupNotFound.
func (s *SignupService) DeleteSignup(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrSignupNotFound
	}

	n, err := s.store.DeleteSignup(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if n == 0 {
		return ErrSignupNotFound
	}

	s.metrics.IncSignupDeleted()
	s.logger.Info("signup_deleted", "signup_id", id)
	return nil
}
