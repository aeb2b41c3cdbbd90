package dto

import "github.com/growen-ao/growen-api/internal/domain/user"

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Company  string `json:"company,omitempty" validate:"max=160"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,phone"`
	Industry string `json:"industry,omitempty" validate:"max=120"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    *user.User `json:"user"`
}

// ProfileRequest is a partial profile update
type ProfileRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Company  *string `json:"company,omitempty" validate:"omitempty,max=160"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,phone"`
	Industry *string `json:"industry,omitempty" validate:"omitempty,max=120"`
}

// ToUpdate converts the request to a domain update
func (p ProfileRequest) ToUpdate() user.ProfileUpdate {
	return user.ProfileUpdate{
		Name:     p.Name,
		Company:  p.Company,
		Phone:    p.Phone,
		Industry: p.Industry,
	}
}

// ChangePasswordRequest carries the current and new password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=128"`
}

// ForgotPasswordRequest starts a password reset
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes a password reset
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=128"`
}

// VerifyResetResponse reports whether a reset token is usable
type VerifyResetResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}
