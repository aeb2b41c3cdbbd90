package email

import (
	"context"
	"time"
)

// Status is the delivery state of a job
type Status string

const (
	StatusPending Status = "pending"
	StatusSending Status = "sending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// IsTerminal reports whether delivery is finished
func (s Status) IsTerminal() bool {
	return s == StatusSent || s == StatusFailed
}

// Kind distinguishes user-initiated client mail from system mail. Only
// client mail counts against the email_sends quota.
type Kind string

const (
	KindClient  Kind = "client"
	KindPayment Kind = "payment_review"
	KindReset   Kind = "password_reset"
	KindExpiry  Kind = "subscription_expired"
	KindWelcome Kind = "welcome"
)

// Job is one outbound email and its delivery record
type Job struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"user_id"`
	ClientID  string     `json:"client_id,omitempty"`
	Kind      Kind       `json:"kind"`
	ToEmail   string     `json:"to_email"`
	ToName    string     `json:"to_name,omitempty"`
	Subject   string     `json:"subject"`
	Body      string     `json:"-"`
	Status    Status     `json:"status"`
	Attempts  int        `json:"attempts"`
	LastError string     `json:"last_error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

// Message is what a Mailer delivers
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Mailer delivers a single message
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Repository defines email job persistence
type Repository interface {
	// Create stores a job as pending, or as sending when the caller has
	// already claimed it
	Create(ctx context.Context, j *Job) error
	GetByID(ctx context.Context, id string) (*Job, error)

	// Claim moves a pending job to sending; false means someone else took it
	Claim(ctx context.Context, id string, now time.Time) (bool, error)
	MarkSent(ctx context.Context, id string, now time.Time) error
	// MarkFailed records the error; the job goes back to pending when
	// retry is true, otherwise it becomes failed.
	MarkFailed(ctx context.Context, id string, errMsg string, retry bool, now time.Time) error

	ListPending(ctx context.Context, limit int) ([]*Job, error)
	CountSince(ctx context.Context, userID int64, kind Kind, since time.Time) (int, error)
}

// Service defines the email job workflow
type Service interface {
	// Enqueue stores a pending job for the background dispatcher
	Enqueue(ctx context.Context, j *Job) (*Job, error)
	// SendNow stores a job and attempts delivery once in the caller's
	// goroutine. Delivery failure is recorded on the job, not returned.
	SendNow(ctx context.Context, j *Job) (*Job, error)
	// Deliver attempts delivery of a stored pending job
	Deliver(ctx context.Context, id string) (*Job, error)
	Get(ctx context.Context, userID int64, id string) (*Job, error)
	DispatchPending(ctx context.Context, limit int) (int, error)
}
