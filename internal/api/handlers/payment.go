package handlers

import (
	"net/http"

	"github.com/growen-ao/growen-api/internal/api/dto"
	"github.com/growen-ao/growen-api/internal/domain/payment"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/utils"
)

// PaymentHandler handles bank-transfer proofs submitted by users
type PaymentHandler struct {
	payments payment.Service
	logger   *logger.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments payment.Service, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		logger:   log,
	}
}

// BankDetails returns where to send the transfer
// @Summary Bank details
// @Tags Payments
// @Produce json
// @Success 200 {object} payment.BankDetails
// @Router /payments/bank-details [get]
func (h *PaymentHandler) BankDetails(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.payments.BankDetails())
}

// UploadProof stores a transfer receipt for administrator review
// @Summary Upload payment proof
// @Tags Payments
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PNG, JPEG or PDF (max 10 MB)"
// @Param plan_id formData string true "Target plan"
// @Param reference_number formData string false "Transfer reference"
// @Param notes formData string false "Notes"
// @Success 200 {object} dto.ProofSubmittedResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /payments/upload-proof [post]
func (h *PaymentHandler) UploadProof(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	file, header, appErr := openUpload(w, r, payment.MaxProofSize)
	if appErr != nil {
		utils.WriteError(w, appErr)
		return
	}
	defer file.Close()

	proof, err := h.payments.Submit(r.Context(), userID, payment.Upload{
		PlanID:          r.FormValue("plan_id"),
		ReferenceNumber: r.FormValue("reference_number"),
		Notes:           r.FormValue("notes"),
		FileName:        header.Filename,
		ContentType:     header.Header.Get("Content-Type"),
		Size:            header.Size,
		Body:            file,
	})
	if err != nil {
		handleError(w, h.logger, err, "Failed to submit payment proof")
		return
	}

	utils.WriteJSON(w, http.StatusOK, dto.ProofSubmittedResponse{
		Message:   "Comprovativo enviado com sucesso. Aguarde a aprovação.",
		PaymentID: proof.ID,
		Status:    proof.Status,
	})
}

// Status lists the caller's proofs
// @Summary My payment proofs
// @Tags Payments
// @Produce json
// @Success 200 {array} payment.Proof
// @Security BearerAuth
// @Router /payments/status [get]
func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	proofs, err := h.payments.ListMine(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err, "Failed to list payment proofs")
		return
	}
	if proofs == nil {
		proofs = []*payment.Proof{}
	}

	utils.WriteJSON(w, http.StatusOK, proofs)
}
