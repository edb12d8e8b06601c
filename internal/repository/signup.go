package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"

	"github.com/nawabco/waitlist/internal/model"
)

// Common errors for signup repository operations.
var (
	ErrSignupNotFound = errors.New("signup not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// InsertSignup stores a new signup and returns it with its assigned ID.
// The ID is a ULID whose timestamp component equals the submission time.
func (r *Repository) InsertSignup(ctx context.Context, email string, submittedAt time.Time) (*model.Signup, error) {
	signup := &model.Signup{
		ID:             ulid.MustNew(ulid.Timestamp(submittedAt), ulid.DefaultEntropy()).String(),
		Email:          email,
		SubmissionDate: submittedAt.UTC(),
	}

	query := `
		INSERT INTO signups (id, email, submission_date)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, signup.ID, signup.Email, signup.SubmissionDate)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, ErrDuplicateEmail
		case isConnectError(err):
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		default:
			return nil, fmt.Errorf("%w: %w", ErrWriteFailed, err)
		}
	}

	return signup, nil
}

// FindSignupByEmail returns the signup registered under email, ignoring case.
func (r *Repository) FindSignupByEmail(ctx context.Context, email string) (*model.Signup, error) {
	query := `
		SELECT id, email, submission_date
		FROM signups
		WHERE lower(email) = lower($1)
		LIMIT 1
	`

	signup, err := scanSignup(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSignupNotFound
		}
		if isConnectError(err) {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		return nil, fmt.Errorf("failed to find signup by email: %w", err)
	}

	return signup, nil
}

// ListSignups returns every signup, newest first.
func (r *Repository) ListSignups(ctx context.Context) ([]*model.Signup, error) {
	query := `
		SELECT id, email, submission_date
		FROM signups
		ORDER BY submission_date DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		if isConnectError(err) {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		return nil, fmt.Errorf("failed to list signups: %w", err)
	}
	defer rows.Close()

	signups := make([]*model.Signup, 0)
	for rows.Next() {
		signup, err := scanSignup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signup: %w", err)
		}
		signups = append(signups, signup)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signups: %w", err)
	}

	return signups, nil
}

// DeleteSignup removes the signup with the given ID and returns the number of
// rows deleted (0 or 1). IDs that are not valid ULIDs match nothing.
func (r *Repository) DeleteSignup(ctx context.Context, id string) (int64, error) {
	if _, err := ulid.ParseStrict(id); err != nil {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM signups WHERE id = $1`, id)
	if err != nil {
		if isConnectError(err) {
			return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		return 0, fmt.Errorf("%w: failed to delete signup: %w", ErrWriteFailed, err)
	}

	return tag.RowsAffected(), nil
}

// scanSignup scans one row into a Signup. Both pgx.Row and pgx.Rows satisfy it.
func scanSignup(row pgx.Row) (*model.Signup, error) {
	var s model.Signup
	if err := row.Scan(&s.ID, &s.Email, &s.SubmissionDate); err != nil {
		return nil, err
	}
	s.SubmissionDate = s.SubmissionDate.UTC()
	return &s, nil
}
