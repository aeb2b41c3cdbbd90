package dto

import "github.com/growen-ao/growen-api/internal/domain/payment"

// ReviewRequest is an administrator's verdict on a proof
type ReviewRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Notes  string `json:"notes,omitempty" validate:"max=2000"`
}

// ReviewNotesRequest is the body of the approve and reject shortcuts
type ReviewNotesRequest struct {
	Notes string `json:"notes,omitempty" validate:"max=2000"`
}

// ProofSubmittedResponse acknowledges an uploaded proof
type ProofSubmittedResponse struct {
	Message   string         `json:"message"`
	PaymentID string         `json:"payment_id"`
	Status    payment.Status `json:"status"`
}

// ReviewResponse reports a review outcome
type ReviewResponse struct {
	Message string           `json:"message"`
	Outcome *payment.Outcome `json:"result"`
}
