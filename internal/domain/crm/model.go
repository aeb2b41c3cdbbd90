package crm

import "time"

// Status is the pipeline stage of a client
type Status string

const (
	StatusLead        Status = "lead_novo"
	StatusNegotiating Status = "em_negociacao"
	StatusActive      Status = "cliente_ativo"
	StatusRetained    Status = "retido"
)

// IsValid reports whether s is a known pipeline stage
func (s Status) IsValid() bool {
	switch s {
	case StatusLead, StatusNegotiating, StatusActive, StatusRetained:
		return true
	default:
		return false
	}
}

// Client is a customer record owned by one user
type Client struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Industry  string    `json:"industry,omitempty"`
	Status    Status    `json:"status"`
	Value     float64   `json:"value"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Communications []*Communication `json:"communication_history"`
}

// CommunicationKind classifies a history entry
type CommunicationKind string

const (
	KindNote     CommunicationKind = "note"
	KindCall     CommunicationKind = "call"
	KindEmail    CommunicationKind = "email"
	KindWhatsApp CommunicationKind = "whatsapp"
)

// IsValid reports whether k is a known kind
func (k CommunicationKind) IsValid() bool {
	switch k {
	case KindNote, KindCall, KindEmail, KindWhatsApp:
		return true
	default:
		return false
	}
}

// Communication is one append-only entry in a client's history
type Communication struct {
	ID        string            `json:"id"`
	ClientID  string            `json:"client_id"`
	Kind      CommunicationKind `json:"type"`
	Subject   string            `json:"subject,omitempty"`
	Content   string            `json:"content"`
	Status    string            `json:"status,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Update holds a partial client update; nil fields are left alone
type Update struct {
	Name     *string
	Email    *string
	Phone    *string
	Company  *string
	Industry *string
	Status   *Status
	Value    *float64
	Notes    *string
}

// Filter narrows client listings
type Filter struct {
	Status Status
}

// CallLinks are the contact shortcuts for a client
type CallLinks struct {
	CallLink     string `json:"call_link"`
	WhatsAppLink string `json:"whatsapp_link"`
	Phone        string `json:"phone"`
}

// EmailTemplate is a canned message with [NOME] and [EMPRESA] placeholders
type EmailTemplate struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Content string `json:"content"`
}
