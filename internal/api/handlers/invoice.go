package handlers

import (
	"fmt"
	"net/http"

	"github.com/growen-ao/growen-api/internal/api/dto"
	"github.com/growen-ao/growen-api/internal/domain/invoice"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/utils"
	"github.com/growen-ao/growen-api/internal/pkg/validator"
)

// InvoiceHandler handles invoicing requests
type InvoiceHandler struct {
	invoices  invoice.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoices invoice.Service, log *logger.Logger, val *validator.Validator) *InvoiceHandler {
	return &InvoiceHandler{
		invoices:  invoices,
		logger:    log,
		validator: val,
	}
}

// Generate bills an active client
// @Summary Generate invoice
// @Tags Invoices
// @Accept json
// @Produce json
// @Param request body dto.GenerateInvoiceRequest true "Invoice"
// @Success 200 {object} dto.InvoiceCreatedResponse
// @Failure 400 {object} utils.ErrorResponse "Client is not active"
// @Security BearerAuth
// @Router /invoices/generate [post]
func (h *InvoiceHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.GenerateInvoiceRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	inv, err := h.invoices.Generate(r.Context(), userID, req.ToDraft())
	if err != nil {
		handleError(w, h.logger, err, "Failed to generate invoice")
		return
	}

	utils.WriteJSON(w, http.StatusOK, dto.InvoiceCreatedResponse{
		Message:       "Fatura gerada com sucesso",
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.Number,
		Total:         inv.Total,
	})
}

// AutoGenerate invoices every active client not yet billed this month
// @Summary Auto-generate invoices
// @Tags Invoices
// @Produce json
// @Success 200 {object} dto.AutoGenerateResponse
// @Security BearerAuth
// @Router /invoices/auto-generate [post]
func (h *InvoiceHandler) AutoGenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	created, err := h.invoices.AutoGenerate(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err, "Failed to auto-generate invoices")
		return
	}
	if created == nil {
		created = []*invoice.Invoice{}
	}

	utils.WriteJSON(w, http.StatusOK, dto.AutoGenerateResponse{
		Message:  fmt.Sprintf("%d faturas geradas", len(created)),
		Count:    len(created),
		Invoices: created,
	})
}

// List returns the caller's invoices
// @Summary List invoices
// @Tags Invoices
// @Produce json
// @Success 200 {array} invoice.Invoice
// @Security BearerAuth
// @Router /invoices [get]
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	invoices, err := h.invoices.List(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err, "Failed to list invoices")
		return
	}
	if invoices == nil {
		invoices = []*invoice.Invoice{}
	}

	utils.WriteJSON(w, http.StatusOK, invoices)
}

// UpdateStatus marks an invoice pending, paid or overdue
// @Summary Update invoice status
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param request body dto.InvoiceStatusRequest true "Status"
// @Success 200 {object} invoice.Invoice
// @Security BearerAuth
// @Router /invoices/{id}/status [put]
func (h *InvoiceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.InvoiceStatusRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	inv, err := h.invoices.UpdateStatus(r.Context(), userID, pathID(r, "id"), invoice.PaymentStatus(req.PaymentStatus))
	if err != nil {
		handleError(w, h.logger, err, "Failed to update invoice status")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Estado da fatura atualizado",
		"invoice": inv,
	})
}

// PDF downloads an invoice as PDF
// @Summary Invoice PDF
// @Tags Invoices
// @Produce application/pdf
// @Param id path string true "Invoice ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /invoices/{id}/pdf [get]
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	body, name, err := h.invoices.RenderPDF(r.Context(), userID, pathID(r, "id"))
	if err != nil {
		handleError(w, h.logger, err, "Failed to render invoice PDF")
		return
	}

	utils.WriteAttachment(w, "application/pdf", name, body)
}
