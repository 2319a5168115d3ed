package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserHashesPasswordAndNormalizesEmail(t *testing.T) {
	u, err := NewUser(" Ada ", "Lovelace", "  Ada@Example.ORG ", "Secret1!x")
	require.NoError(t, err)

	assert.Equal(t, "Ada", u.FirstName)
	assert.Equal(t, "ada@example.org", u.Email)
	assert.Equal(t, ROLE_USER, u.Role)
	assert.NotEqual(t, "Secret1!x", u.PasswordHash)
	assert.True(t, u.CheckPassword("Secret1!x"))
	assert.False(t, u.CheckPassword("wrong"))
}

func TestNewUserRejectsInvalidEmail(t *testing.T) {
	_, err := NewUser("Ada", "Lovelace", "not-an-email", "")
	require.Error(t, err)
}

func TestOAuthUserCannotPasswordLogin(t *testing.T) {
	u, err := NewUser("Grace", "Hopper", "grace@example.org", "")
	require.NoError(t, err)

	assert.Empty(t, u.PasswordHash)
	assert.False(t, u.CheckPassword(""))
}

func TestUserRoles(t *testing.T) {
	tests := []struct {
		role    string
		staff   bool
		isAdmin bool
	}{
		{ROLE_USER, false, false},
		{ROLE_MODERATOR, true, false},
		{ROLE_ADMIN, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			u := &User{Role: tt.role}
			assert.Equal(t, tt.staff, u.IsStaff())
			assert.Equal(t, tt.isAdmin, u.IsAdmin())
		})
	}
}
