package services

import (
	"fmt"
	"strings"
	"unicode"
)

const minPasswordLength = 8

const specialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// ValidatePassword checks a candidate password against the policy and
// returns every violated rule in order. An empty slice means the
// password is acceptable. An empty password short-circuits to the single
// "required" violation; all other rules are checked independently so the
// caller can report them together.
func ValidatePassword(password string) []string {
	if password == "" {
		return []string{"Password is required"}
	}

	var violations []string

	if len(password) < minPasswordLength {
		violations = append(violations, fmt.Sprintf("Password must be at least %d characters long", minPasswordLength))
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		violations = append(violations, "Password must contain at least one uppercase letter (A-Z)")
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		violations = append(violations, "Password must contain at least one lowercase letter (a-z)")
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		violations = append(violations, "Password must contain at least one digit (0-9)")
	}
	if !strings.ContainsAny(password, specialChars) {
		violations = append(violations, "Password must contain at least one special character ("+specialChars+")")
	}
	if strings.ContainsFunc(password, unicode.IsSpace) {
		violations = append(violations, "Password must not contain spaces")
	}

	return violations
}
