package invoice

import (
	"context"
	"math"
	"time"
)

// TaxRate is the Angolan IVA applied to every invoice
const TaxRate = 0.14

// PaymentStatus tracks whether an invoice was settled
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusPaid    PaymentStatus = "paid"
	StatusOverdue PaymentStatus = "overdue"
)

// IsValid reports whether s is a known status
func (s PaymentStatus) IsValid() bool {
	return s == StatusPending || s == StatusPaid || s == StatusOverdue
}

// Invoice is billed to one client
type Invoice struct {
	ID                 string        `json:"id"`
	UserID             int64         `json:"user_id"`
	ClientID           string        `json:"client_id"`
	ClientName         string        `json:"client_name"`
	ClientEmail        string        `json:"client_email"`
	Number             string        `json:"invoice_number"`
	ServiceDescription string        `json:"service_description"`
	Quantity           float64       `json:"quantity"`
	UnitPrice          float64       `json:"unit_price"`
	Subtotal           float64       `json:"subtotal"`
	Tax                float64       `json:"tax"`
	Total              float64       `json:"total"`
	Notes              string        `json:"notes,omitempty"`
	PaymentStatus      PaymentStatus `json:"payment_status"`
	DueDate            time.Time     `json:"due_date"`
	PaidAt             *time.Time    `json:"paid_at,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
}

// Compute fills subtotal, tax and total from quantity and unit price,
// rounded to cents.
func (i *Invoice) Compute() {
	i.Subtotal = round2(i.Quantity * i.UnitPrice)
	i.Tax = round2(i.Subtotal * TaxRate)
	i.Total = round2(i.Subtotal + i.Tax)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Draft is the input to manual invoice generation
type Draft struct {
	ClientID           string
	ServiceDescription string
	Quantity           float64
	UnitPrice          float64
	Notes              string
	DueDays            int
}

// Repository defines invoice persistence
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, userID int64, id string) (*Invoice, error)
	List(ctx context.Context, userID int64) ([]*Invoice, error)
	UpdateStatus(ctx context.Context, userID int64, id string, status PaymentStatus, paidAt *time.Time) error
	// ExistsForClientSince reports whether the client was invoiced at or after since
	ExistsForClientSince(ctx context.Context, clientID string, since time.Time) (bool, error)
	// SumPaidSince totals invoices marked paid at or after since
	SumPaidSince(ctx context.Context, userID int64, since time.Time) (float64, error)
	NextSequence(ctx context.Context, userID int64) (int, error)
}

// Service defines invoice business logic
type Service interface {
	Generate(ctx context.Context, userID int64, d Draft) (*Invoice, error)
	AutoGenerate(ctx context.Context, userID int64) ([]*Invoice, error)
	List(ctx context.Context, userID int64) ([]*Invoice, error)
	UpdateStatus(ctx context.Context, userID int64, id string, status PaymentStatus) (*Invoice, error)
	RenderPDF(ctx context.Context, userID int64, id string) ([]byte, string, error)
}
