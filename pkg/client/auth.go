package client

import (
	"context"
	"time"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Company  string `json:"company,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Industry string `json:"industry,omitempty"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    *User  `json:"user,omitempty"`
}

// User represents an account
type User struct {
	ID                  int64      `json:"id"`
	Email               string     `json:"email"`
	Name                string     `json:"name"`
	Company             string     `json:"company,omitempty"`
	Phone               string     `json:"phone,omitempty"`
	Industry            string     `json:"industry,omitempty"`
	Plan                string     `json:"plan"`
	IsAdmin             bool       `json:"is_admin"`
	IsActive            bool       `json:"is_active"`
	SubscriptionExpires *time.Time `json:"subscription_expires,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// MessageResponse is the body of endpoints that only confirm an action
type MessageResponse struct {
	Message string `json:"message"`
}

// Login authenticates with email and password
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doRequest(ctx, "POST", "/api/auth/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}

	// Automatically set the token for future requests
	if resp.Token != "" {
		c.SetToken(resp.Token)
	}

	return &resp, nil
}

// Register creates a new account on the free plan
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doRequest(ctx, "POST", "/api/auth/register", req, &resp); err != nil {
		return nil, err
	}

	if resp.Token != "" {
		c.SetToken(resp.Token)
	}

	return &resp, nil
}

// GetCurrentUser retrieves the currently authenticated user
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.doRequest(ctx, "GET", "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout revokes the current token on the server
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doRequest(ctx, "POST", "/api/auth/logout", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// ForgotPassword asks the server to email a reset link
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.doRequest(ctx, "POST", "/api/auth/forgot-password", map[string]string{"email": email}, nil)
}

// ResetPassword completes a reset with the token from the emailed link
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.doRequest(ctx, "POST", "/api/auth/reset-password", map[string]string{
		"token":        token,
		"new_password": newPassword,
	}, nil)
}

// ChangePassword replaces the signed-in user's password
func (c *Client) ChangePassword(ctx context.Context, current, newPassword string) error {
	return c.doRequest(ctx, "POST", "/api/auth/change-password", map[string]string{
		"current_password": current,
		"new_password":     newPassword,
	}, nil)
}
