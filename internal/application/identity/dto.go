package identity

import (
	"time"

	"github.com/gateway/backend/internal/domain/identity"
)

// RegisterInput contains the fields of a new account
type RegisterInput struct {
	Username string
	Password string
	Role     string
}

// LoginInput contains login credentials
type LoginInput struct {
	Username string
	Password string
	IP       string
}

// LoginResult is returned on successful login
type LoginResult struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int64    `json:"expires_in"`
	User        *UserDTO `json:"user"`
}

// UserDTO is the public view of a user
type UserDTO struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserDTO converts a domain user
func ToUserDTO(u *identity.User) *UserDTO {
	return &UserDTO{
		ID:        u.ID,
		Username:  u.Username,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}
