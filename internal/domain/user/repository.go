package user

import (
	"context"
	"time"
)

// Repository defines the interface for user data access
type Repository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByResetTokenHash retrieves the user holding an unexpired reset token
	GetByResetTokenHash(ctx context.Context, hash string, now time.Time) (*User, error)

	// Update updates a user
	Update(ctx context.Context, user *User) error

	// UpdatePlan sets the plan and subscription expiry
	UpdatePlan(ctx context.Context, id int64, plan string, expires *time.Time) error

	// Delete deletes a user
	Delete(ctx context.Context, id int64) error

	// List retrieves users with pagination
	List(ctx context.Context, filter Filter, limit, offset int) ([]*User, int64, error)

	// ListExpired returns paid users whose subscription ended before now
	ListExpired(ctx context.Context, now time.Time) ([]*User, error)

	// DowngradeExpired moves the user to the free plan only if the
	// subscription still ended before now. false means it was renewed or
	// already downgraded.
	DowngradeExpired(ctx context.Context, id int64, now time.Time) (bool, error)
}
