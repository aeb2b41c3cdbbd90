package crm

import (
	"context"
	"time"
)

// Repository defines client persistence. Every lookup is scoped by owner so
// a client belonging to someone else reads as not found.
type Repository interface {
	Create(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, userID int64, id string) (*Client, error)
	List(ctx context.Context, userID int64, filter Filter) ([]*Client, error)
	Update(ctx context.Context, c *Client) error
	Delete(ctx context.Context, userID int64, id string) error

	// Count returns the number of clients the user owns
	Count(ctx context.Context, userID int64) (int, error)
	CountByStatus(ctx context.Context, userID int64, status Status) (int, error)

	AddCommunication(ctx context.Context, entry *Communication) error
	ListCommunications(ctx context.Context, clientID string) ([]*Communication, error)

	// CountCreatedBetween counts clients of all users created in [from, to)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
}
