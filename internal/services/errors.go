package services

import (
	"errors"
	"strings"
)

// Domain errors surfaced by the lifecycle and project services.
// Handlers map these to HTTP statuses; everything else is treated as an
// internal error and surfaced generically.
var (
	// ErrAlreadyExists is returned when registering an email that is
	// already taken.
	ErrAlreadyExists = errors.New("an account with this email already exists")

	// ErrNotFound is returned when the referenced user does not exist
	// and the operation may safely reveal that.
	ErrNotFound = errors.New("user not found")

	// ErrInvalidCredentials covers both unknown-email and wrong-password
	// login failures. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidCode is returned when a submitted verification or reset
	// code does not match the live code, or the slot is already cleared.
	ErrInvalidCode = errors.New("invalid code")

	// ErrCodeExpired is returned when the code matches but its expiry
	// has passed.
	ErrCodeExpired = errors.New("code has expired, please request a new one")

	// ErrEmailNotVerified is returned on login before the password is
	// even checked when the account is unverified.
	ErrEmailNotVerified = errors.New("please verify your email before logging in")
)

// PasswordPolicyError carries every policy rule the candidate password
// violated, or a single mismatch message when the confirmation differed.
type PasswordPolicyError struct {
	Violations []string
}

func (e *PasswordPolicyError) Error() string {
	if len(e.Violations) == 0 {
		return "invalid password"
	}
	return strings.Join(e.Violations, "; ")
}

func passwordsDoNotMatch() error {
	return &PasswordPolicyError{Violations: []string{"Passwords do not match"}}
}
