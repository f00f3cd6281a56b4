package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	BcryptCost = bcrypt.MinCost
}

func TestNewUser(t *testing.T) {
	t.Run("creates user with hashed password", func(t *testing.T) {
		user, err := NewUser("  Alice ", "s3cret", RoleUser)
		require.NoError(t, err)

		assert.Equal(t, "alice", user.Username)
		assert.NotEqual(t, "s3cret", user.PasswordHash)
		assert.True(t, user.VerifyPassword("s3cret"))
		assert.False(t, user.VerifyPassword("wrong"))
		assert.False(t, user.IsAdmin())
	})

	t.Run("defaults empty role to user", func(t *testing.T) {
		user, err := NewUser("bob", "pw", "")
		require.NoError(t, err)
		assert.Equal(t, RoleUser, user.Role)
	})

	t.Run("accepts admin role", func(t *testing.T) {
		user, err := NewUser("root", "pw", RoleAdmin)
		require.NoError(t, err)
		assert.True(t, user.IsAdmin())
	})

	tests := []struct {
		name     string
		username string
		password string
		role     Role
		wantMsg  string
	}{
		{"empty username", "", "pw", RoleUser, "Username cannot be empty"},
		{"short username", "ab", "pw", RoleUser, "at least 3 characters"},
		{"bad characters", "a b c", "pw", RoleUser, "can only contain"},
		{"empty password", "carol", "", RoleUser, "Password cannot be empty"},
		{"unknown role", "carol", "pw", Role("owner"), "Role must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := NewUser(tt.username, tt.password, tt.role)
			require.Error(t, err)
			assert.Nil(t, user)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
