package payment

import (
	"context"
	"io"
	"time"
)

// MaxProofSize is the largest accepted payment proof, in bytes
const MaxProofSize = 10 << 20

// Status is the review state of a proof
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsTerminal reports whether no further review is possible
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Decision is an administrator's verdict
type Decision string

const (
	DecisionApprove Decision = "approved"
	DecisionReject  Decision = "rejected"
)

// IsValid reports whether d is approve or reject
func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// Proof is an uploaded bank-transfer receipt awaiting review
type Proof struct {
	ID              string     `json:"id"`
	UserID          int64      `json:"user_id"`
	UserEmail       string     `json:"user_email,omitempty"`
	UserName        string     `json:"user_name,omitempty"`
	PlanID          string     `json:"plan_id"`
	Amount          int64      `json:"amount"`
	Currency        string     `json:"currency"`
	ReferenceNumber string     `json:"reference_number,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	FileKey         string     `json:"-"`
	FileName        string     `json:"file_name"`
	ContentType     string     `json:"content_type"`
	FileSize        int64      `json:"file_size"`
	Status          Status     `json:"status"`
	AdminNotes      string     `json:"admin_notes,omitempty"`
	ReviewedBy      *int64     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Upload is the input to submitting a proof
type Upload struct {
	PlanID          string
	ReferenceNumber string
	Notes           string
	FileName        string
	ContentType     string
	Size            int64
	Body            io.Reader
}

// Review is the conditional state change applied by an administrator
type Review struct {
	ProofID    string
	Status     Status
	AdminNotes string
	ReviewerID int64
	ReviewedAt time.Time
}

// BankDetails is where users send transfers
type BankDetails struct {
	BankName      string `json:"bank_name"`
	AccountHolder string `json:"account_holder"`
	AccountNumber string `json:"account_number"`
	IBAN          string `json:"iban"`
	SwiftCode     string `json:"swift_code,omitempty"`
	Currency      string `json:"currency"`
}

// Outcome is what a successful review changed
type Outcome struct {
	Proof          *Proof     `json:"payment"`
	Plan           string     `json:"plan"`
	ExpiresAt      *time.Time `json:"subscription_expires,omitempty"`
	EmailJobID     string     `json:"email_job_id,omitempty"`
	PreviousStatus Status     `json:"-"`
}

// Filter narrows proof listings
type Filter struct {
	Status Status
	UserID int64
}

// Repository defines proof persistence
type Repository interface {
	Create(ctx context.Context, p *Proof) error
	GetByID(ctx context.Context, id string) (*Proof, error)
	List(ctx context.Context, filter Filter) ([]*Proof, error)

	// ApplyReview moves a pending proof to a terminal status. It reports
	// false when the proof was not pending, leaving the row untouched.
	ApplyReview(ctx context.Context, r Review) (bool, error)

	CountByStatus(ctx context.Context, status Status) (int, error)
	// SumApprovedBetween totals approved amounts reviewed in [from, to)
	SumApprovedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// Service defines the payment proof workflow
type Service interface {
	BankDetails() BankDetails
	RequestUpgrade(ctx context.Context, userID int64, planID string) (map[string]interface{}, error)
	Submit(ctx context.Context, userID int64, up Upload) (*Proof, error)
	ListMine(ctx context.Context, userID int64) ([]*Proof, error)
	List(ctx context.Context, filter Filter) ([]*Proof, error)
	Review(ctx context.Context, reviewerID int64, proofID string, decision Decision, notes string) (*Outcome, error)
	OpenProof(ctx context.Context, proofID string) (io.ReadCloser, *Proof, error)
}
