package user

import "time"

// User represents an account holder
type User struct {
	ID                  int64      `json:"id"`
	Email               string     `json:"email"`
	Name                string     `json:"name"`
	PasswordHash        string     `json:"-"`
	Company             string     `json:"company,omitempty"`
	Phone               string     `json:"phone,omitempty"`
	Industry            string     `json:"industry,omitempty"`
	Plan                string     `json:"plan"`
	IsAdmin             bool       `json:"is_admin"`
	IsActive            bool       `json:"is_active"`
	SubscriptionExpires *time.Time `json:"subscription_expires,omitempty"`
	ResetTokenHash      string     `json:"-"`
	ResetTokenExpires   *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ProfileUpdate carries optional profile fields; nil means unchanged
type ProfileUpdate struct {
	Name     *string
	Company  *string
	Phone    *string
	Industry *string
}

// AdminUpdate carries the fields an administrator may change
type AdminUpdate struct {
	IsActive *bool
	IsAdmin  *bool
	Plan     *string
}

// Registration is the input to account creation
type Registration struct {
	Email    string
	Name     string
	Password string
	Company  string
	Phone    string
	Industry string
}

// Filter narrows user listings
type Filter struct {
	Plan     string
	IsActive *bool
	IsAdmin  *bool
}
