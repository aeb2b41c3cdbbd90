package user

import "context"

// Service defines the interface for account business logic
type Service interface {
	Register(ctx context.Context, reg Registration) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*User, error)
	ChangePassword(ctx context.Context, id int64, current, next string) error

	// RequestPasswordReset enqueues a reset email when the address exists.
	// It never reveals whether the account exists.
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyResetToken(ctx context.Context, token string) (bool, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}
