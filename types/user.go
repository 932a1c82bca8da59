package types

import (
	"database/sql"
	"strings"
	"time"
)

// User represents an account in the system.
// It contains identity, company affiliation, role, and the one-time-code
// state used by the email verification and password reset flows.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the user's email address, stored lowercased.
	// It is the unique login identifier.
	Email string `json:"email" db:"email"`

	// FirstName is the user's given name.
	FirstName string `json:"firstName" db:"first_name"`

	// LastName is the user's family name.
	LastName string `json:"lastName" db:"last_name"`

	// CompanyName is the company the user registered under. Non-admin
	// access to projects is scoped by matching this against the
	// project's client company.
	CompanyName string `json:"companyName" db:"company_name"`

	// Role indicates the user's authorization level.
	Role Role `json:"role" db:"role"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// EmailVerified reports whether the user has proven control of
	// their email address. Login is refused until it is true.
	EmailVerified bool `json:"emailVerified" db:"email_verified"`

	// Enabled mirrors EmailVerified; an unverified account is disabled.
	Enabled bool `json:"-" db:"enabled"`

	// VerificationCode and VerificationCodeExpiry form the one-time
	// email verification slot. Either both are set or both are null;
	// a consumed code is cleared immediately.
	VerificationCode       sql.NullString `json:"-" db:"verification_code"`
	VerificationCodeExpiry sql.NullTime   `json:"-" db:"verification_code_expiry"`

	// PasswordResetCode and PasswordResetCodeExpiry form the one-time
	// password reset slot, independent of the verification slot.
	PasswordResetCode       sql.NullString `json:"-" db:"password_reset_code"`
	PasswordResetCodeExpiry sql.NullTime   `json:"-" db:"password_reset_code_expiry"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Profile is the sanitized view of a user returned by the API.
// It carries no credential or code material.
type Profile struct {
	ID            int       `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	CompanyName   string    `json:"companyName"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Sanitized returns the profile view of the user.
func (u User) Sanitized() Profile {
	return Profile{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		CompanyName:   u.CompanyName,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SameCompany reports whether two company names refer to the same company.
// Ownership is an attribute match, not a foreign key; every company
// comparison in the codebase goes through this helper so the semantics
// can be swapped for a real relation later.
func SameCompany(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
