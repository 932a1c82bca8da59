package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("ADMIN"))
	assert.Equal(t, RoleAdmin, ParseRole(" admin "))
	assert.Equal(t, RoleUser, ParseRole("USER"))

	// Unknown values degrade to the least privileged role.
	assert.Equal(t, RoleUser, ParseRole(""))
	assert.Equal(t, RoleUser, ParseRole("SUPERUSER"))
}

func TestSameCompany(t *testing.T) {
	assert.True(t, SameCompany("Acme", "acme"))
	assert.True(t, SameCompany("  Acme  ", "ACME"))
	assert.False(t, SameCompany("Acme", "Acme Inc"))
	assert.True(t, SameCompany("", ""))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.COM "))
}

func TestSanitizedOmitsCredentialMaterial(t *testing.T) {
	user := User{
		ID:           7,
		Email:        "a@x.com",
		CompanyName:  "Acme",
		Role:         RoleAdmin,
		PasswordHash: "$2a$10$secret",
	}
	profile := user.Sanitized()
	assert.Equal(t, 7, profile.ID)
	assert.Equal(t, RoleAdmin, profile.Role)
	assert.True(t, user.IsAdmin())
}
