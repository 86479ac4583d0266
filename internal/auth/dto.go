package auth

import (
	"github.com/chiecouture/storefront-backend/internal/users"
)

// RegisterInput captures a new account request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// LoginInput captures credentials for token issuance.
type LoginInput struct {
	Email    string
	Password string
}

// SessionDTO is the login/register response payload.
type SessionDTO struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}

// ResetRequestInput starts a password reset.
type ResetRequestInput struct {
	Email string
}

// ResetConfirmInput completes a password reset.
type ResetConfirmInput struct {
	Token    string
	Password string
}
