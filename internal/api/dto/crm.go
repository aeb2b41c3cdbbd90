package dto

import (
	"github.com/growen-ao/growen-api/internal/domain/crm"
	"github.com/growen-ao/growen-api/internal/domain/email"
)

// CreateClientRequest creates a CRM client
type CreateClientRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=160"`
	Email    string  `json:"email" validate:"required,email,max=254"`
	Phone    string  `json:"phone,omitempty" validate:"omitempty,phone"`
	Company  string  `json:"company,omitempty" validate:"max=160"`
	Industry string  `json:"industry,omitempty" validate:"max=120"`
	Value    float64 `json:"value,omitempty" validate:"gte=0"`
	Notes    string  `json:"notes,omitempty" validate:"max=5000"`
	Status   string  `json:"status,omitempty" validate:"omitempty,oneof=lead_novo em_negociacao cliente_ativo retido"`
}

// ToClient converts the request to a domain client
func (c CreateClientRequest) ToClient() *crm.Client {
	return &crm.Client{
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Company:  c.Company,
		Industry: c.Industry,
		Value:    c.Value,
		Notes:    c.Notes,
		Status:   crm.Status(c.Status),
	}
}

// UpdateClientRequest is a partial client update
type UpdateClientRequest struct {
	Name     *string  `json:"name,omitempty" validate:"omitempty,min=1,max=160"`
	Email    *string  `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone    *string  `json:"phone,omitempty" validate:"omitempty,phone"`
	Company  *string  `json:"company,omitempty" validate:"omitempty,max=160"`
	Industry *string  `json:"industry,omitempty" validate:"omitempty,max=120"`
	Value    *float64 `json:"value,omitempty" validate:"omitempty,gte=0"`
	Notes    *string  `json:"notes,omitempty" validate:"omitempty,max=5000"`
	Status   *string  `json:"status,omitempty" validate:"omitempty,oneof=lead_novo em_negociacao cliente_ativo retido"`
}

// ToUpdate converts the request to a domain update
func (u UpdateClientRequest) ToUpdate() crm.Update {
	upd := crm.Update{
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		Company:  u.Company,
		Industry: u.Industry,
		Value:    u.Value,
		Notes:    u.Notes,
	}
	if u.Status != nil {
		s := crm.Status(*u.Status)
		upd.Status = &s
	}
	return upd
}

// ClientResponse wraps a client after an update
type ClientResponse struct {
	Message string      `json:"message"`
	Client  *crm.Client `json:"client"`
}

// CommunicationRequest appends to a client's history
type CommunicationRequest struct {
	Type    string `json:"type" validate:"required,oneof=note call email whatsapp"`
	Subject string `json:"subject,omitempty" validate:"max=200"`
	Content string `json:"content" validate:"required,max=10000"`
}

// SendEmailRequest sends a message to a client. ClientID is accepted for
// compatibility and must match the path when present.
type SendEmailRequest struct {
	Subject  string `json:"subject" validate:"required,max=200"`
	Content  string `json:"content" validate:"required,max=20000"`
	ClientID string `json:"client_id,omitempty"`
}

// SendEmailResponse reports the outcome of an immediate send
type SendEmailResponse struct {
	Message string       `json:"message"`
	Status  email.Status `json:"status"`
	JobID   string       `json:"job_id"`
}
