package client

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"
)

// PaymentService handles payment-related API calls
type PaymentService struct {
	client *Client
}

// BankDetails is where transfers are sent
type BankDetails struct {
	BankName      string `json:"bank_name"`
	AccountHolder string `json:"account_holder"`
	AccountNumber string `json:"account_number"`
	IBAN          string `json:"iban"`
	SwiftCode     string `json:"swift_code,omitempty"`
	Currency      string `json:"currency"`
}

// Payment is an uploaded transfer proof
type Payment struct {
	ID              string     `json:"id"`
	UserID          int64      `json:"user_id"`
	UserEmail       string     `json:"user_email,omitempty"`
	UserName        string     `json:"user_name,omitempty"`
	PlanID          string     `json:"plan_id"`
	Amount          int64      `json:"amount"`
	Currency        string     `json:"currency"`
	ReferenceNumber string     `json:"reference_number,omitempty"`
	FileName        string     `json:"file_name"`
	Status          string     `json:"status"`
	AdminNotes      string     `json:"admin_notes,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ReviewResult is returned after approving or rejecting a proof
type ReviewResult struct {
	Message string `json:"message"`
	Result  struct {
		Payment             *Payment   `json:"payment"`
		Plan                string     `json:"plan"`
		SubscriptionExpires *time.Time `json:"subscription_expires,omitempty"`
		EmailJobID          string     `json:"email_job_id,omitempty"`
	} `json:"result"`
}

// ProofUpload is a bank-transfer receipt for PlanID
type ProofUpload struct {
	PlanID          string
	ReferenceNumber string
	Notes           string
	FileName        string // PNG, JPEG or PDF; the extension sets the part type
	Body            io.Reader
}

// ProofSubmitted acknowledges an upload
type ProofSubmitted struct {
	Message   string `json:"message"`
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

// BankDetails returns the transfer destination
func (s *PaymentService) BankDetails(ctx context.Context) (*BankDetails, error) {
	var bd BankDetails
	if err := s.client.doRequest(ctx, "GET", "/api/payments/bank-details", nil, &bd); err != nil {
		return nil, err
	}
	return &bd, nil
}

// Status lists the authenticated user's proofs
func (s *PaymentService) Status(ctx context.Context) ([]Payment, error) {
	var out []Payment
	if err := s.client.doRequest(ctx, "GET", "/api/payments/status", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Pending lists proofs awaiting review. Requires an administrator.
func (s *PaymentService) Pending(ctx context.Context) ([]Payment, error) {
	var out []Payment
	if err := s.client.doRequest(ctx, "GET", "/api/admin/payments/pending", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Approve activates the plan paid for by proof id
func (s *PaymentService) Approve(ctx context.Context, id, notes string) (*ReviewResult, error) {
	return s.review(ctx, id, "approve", notes)
}

// Reject declines proof id
func (s *PaymentService) Reject(ctx context.Context, id, notes string) (*ReviewResult, error) {
	return s.review(ctx, id, "reject", notes)
}

func (s *PaymentService) review(ctx context.Context, id, action, notes string) (*ReviewResult, error) {
	var body interface{}
	if notes != "" {
		body = map[string]string{"notes": notes}
	}
	var out ReviewResult
	path := fmt.Sprintf("/api/admin/payments/%s/%s", url.PathEscape(id), action)
	if err := s.client.doRequest(ctx, "POST", path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadProof submits a transfer receipt for admin review
func (s *PaymentService) UploadProof(ctx context.Context, up ProofUpload) (*ProofSubmitted, error) {
	fields := map[string]string{
		"plan_id":          up.PlanID,
		"reference_number": up.ReferenceNumber,
		"notes":            up.Notes,
	}
	var out ProofSubmitted
	if err := s.client.upload(ctx, "/api/payments/upload-proof", fields, up.FileName, up.Body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Proof downloads the stored receipt of payment id. Requires an administrator.
func (s *PaymentService) Proof(ctx context.Context, id string) (*File, error) {
	return s.client.download(ctx, "GET", fmt.Sprintf("/api/admin/payments/%s/proof", url.PathEscape(id)))
}
