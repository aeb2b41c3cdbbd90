package crm

import (
	"context"

	"github.com/growen-ao/growen-api/internal/domain/email"
)

// Service defines CRM business logic
type Service interface {
	Create(ctx context.Context, userID int64, c *Client) (*Client, error)
	Get(ctx context.Context, userID int64, id string) (*Client, error)
	List(ctx context.Context, userID int64, filter Filter) ([]*Client, error)
	Update(ctx context.Context, userID int64, id string, upd Update) (*Client, error)
	Delete(ctx context.Context, userID int64, id string) error
	AddCommunication(ctx context.Context, userID int64, clientID string, kind CommunicationKind, subject, content string) (*Communication, error)

	// SendEmail delivers a message to the client right away and records it
	// in the history. A delivery failure is reported on the returned job.
	SendEmail(ctx context.Context, userID int64, clientID, subject, content string) (*email.Job, error)
	CallLinks(ctx context.Context, userID int64, clientID string) (*CallLinks, error)
	Templates() []EmailTemplate
}
