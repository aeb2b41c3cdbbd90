package dto

import "github.com/growen-ao/growen-api/internal/domain/invoice"

// GenerateInvoiceRequest bills an active client
type GenerateInvoiceRequest struct {
	ClientID           string  `json:"client_id" validate:"required"`
	ServiceDescription string  `json:"service_description" validate:"required,max=500"`
	Quantity           float64 `json:"quantity" validate:"gt=0"`
	UnitPrice          float64 `json:"unit_price" validate:"gte=0"`
	Notes              string  `json:"notes,omitempty" validate:"max=2000"`
	DueDays            int     `json:"due_days,omitempty" validate:"gte=0,lte=365"`
}

// ToDraft converts the request to the domain type
func (g GenerateInvoiceRequest) ToDraft() invoice.Draft {
	return invoice.Draft{
		ClientID:           g.ClientID,
		ServiceDescription: g.ServiceDescription,
		Quantity:           g.Quantity,
		UnitPrice:          g.UnitPrice,
		Notes:              g.Notes,
		DueDays:            g.DueDays,
	}
}

// InvoiceCreatedResponse acknowledges a generated invoice
type InvoiceCreatedResponse struct {
	Message       string  `json:"message"`
	InvoiceID     string  `json:"invoice_id"`
	InvoiceNumber string  `json:"invoice_number"`
	Total         float64 `json:"total"`
}

// AutoGenerateResponse lists invoices created in one pass
type AutoGenerateResponse struct {
	Message  string             `json:"message"`
	Count    int                `json:"count"`
	Invoices []*invoice.Invoice `json:"invoices"`
}

// InvoiceStatusRequest changes the payment status
type InvoiceStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=pending paid overdue"`
}
