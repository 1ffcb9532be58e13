package auth

import (
	"github.com/threadline-io/threadline-backend/internal/users"
)

// LoginRequest contains the credentials payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned after a successful login or registration.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}

// RegisterStartRequest kicks off registration by emailing a verification code.
type RegisterStartRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RegisterVerifyRequest completes registration with the emailed code.
type RegisterVerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// PasswordResetStartRequest kicks off the forgot-password flow.
type PasswordResetStartRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest swaps the credential after code verification.
type PasswordResetConfirmRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}
