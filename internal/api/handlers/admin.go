package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/growen-ao/growen-api/internal/api/dto"
	"github.com/growen-ao/growen-api/internal/domain/admin"
	"github.com/growen-ao/growen-api/internal/domain/payment"
	"github.com/growen-ao/growen-api/internal/domain/user"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/utils"
	"github.com/growen-ao/growen-api/internal/pkg/validator"
)

// AdminHandler serves the administrator routes. Callers must already have
// passed middleware.RequireAdmin.
type AdminHandler struct {
	admin     admin.Service
	payments  payment.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService admin.Service, payments payment.Service, log *logger.Logger, val *validator.Validator) *AdminHandler {
	return &AdminHandler{
		admin:     adminService,
		payments:  payments,
		logger:    log,
		validator: val,
	}
}

// PendingPayments lists proofs awaiting review
// @Summary Pending proofs
// @Tags Admin
// @Produce json
// @Success 200 {array} payment.Proof
// @Security BearerAuth
// @Router /admin/payments/pending [get]
func (h *AdminHandler) PendingPayments(w http.ResponseWriter, r *http.Request) {
	h.listPayments(w, r, payment.Filter{Status: payment.StatusPending})
}

// AllPayments lists every proof
// @Summary All proofs
// @Tags Admin
// @Produce json
// @Success 200 {array} payment.Proof
// @Security BearerAuth
// @Router /admin/payments/all [get]
func (h *AdminHandler) AllPayments(w http.ResponseWriter, r *http.Request) {
	h.listPayments(w, r, payment.Filter{})
}

func (h *AdminHandler) listPayments(w http.ResponseWriter, r *http.Request, filter payment.Filter) {
	proofs, err := h.payments.List(r.Context(), filter)
	if err != nil {
		handleError(w, h.logger, err, "Failed to list payment proofs")
		return
	}
	if proofs == nil {
		proofs = []*payment.Proof{}
	}
	utils.WriteJSON(w, http.StatusOK, proofs)
}

// Review approves or rejects a pending proof. A proof can be reviewed once;
// later attempts get 409.
// @Summary Review proof
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Proof ID"
// @Param request body dto.ReviewRequest true "Decision"
// @Success 200 {object} dto.ReviewResponse
// @Failure 409 {object} utils.ErrorResponse "Already reviewed"
// @Security BearerAuth
// @Router /admin/payments/{id}/review [post]
func (h *AdminHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req dto.ReviewRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}
	h.review(w, r, payment.Decision(req.Status), req.Notes)
}

// Approve is shorthand for a review with status approved
// @Summary Approve proof
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Proof ID"
// @Param request body dto.ReviewNotesRequest false "Notes"
// @Success 200 {object} dto.ReviewResponse
// @Failure 409 {object} utils.ErrorResponse "Already reviewed"
// @Security BearerAuth
// @Router /admin/payments/{id}/approve [post]
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req dto.ReviewNotesRequest
	if !decodeOptionalBody(w, r, h.validator, &req) {
		return
	}
	h.review(w, r, payment.DecisionApprove, req.Notes)
}

// Reject is shorthand for a review with status rejected
// @Summary Reject proof
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Proof ID"
// @Param request body dto.ReviewNotesRequest false "Notes"
// @Success 200 {object} dto.ReviewResponse
// @Failure 409 {object} utils.ErrorResponse "Already reviewed"
// @Security BearerAuth
// @Router /admin/payments/{id}/reject [post]
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req dto.ReviewNotesRequest
	if !decodeOptionalBody(w, r, h.validator, &req) {
		return
	}
	h.review(w, r, payment.DecisionReject, req.Notes)
}

func (h *AdminHandler) review(w http.ResponseWriter, r *http.Request, decision payment.Decision, notes string) {
	adminID, ok := currentUser(w, r)
	if !ok {
		return
	}

	outcome, err := h.payments.Review(r.Context(), adminID, pathID(r, "id"), decision, notes)
	if err != nil {
		handleError(w, h.logger, err, "Failed to review payment proof")
		return
	}

	msg := "Pagamento rejeitado"
	if decision == payment.DecisionApprove {
		msg = fmt.Sprintf("Pagamento aprovado. Plano %s ativado", outcome.Plan)
	}
	utils.WriteJSON(w, http.StatusOK, dto.ReviewResponse{
		Message: msg,
		Outcome: outcome,
	})
}

// Proof streams the uploaded receipt
// @Summary Download proof file
// @Tags Admin
// @Produce octet-stream
// @Param id path string true "Proof ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /admin/payments/{id}/proof [get]
func (h *AdminHandler) Proof(w http.ResponseWriter, r *http.Request) {
	body, proof, err := h.payments.OpenProof(r.Context(), pathID(r, "id"))
	if err != nil {
		handleError(w, h.logger, err, "Failed to open payment proof")
		return
	}
	defer body.Close()

	disposition := utils.ContentDisposition("inline", proof.FileName)
	if err := utils.StreamFile(w, proof.ContentType, disposition, proof.FileSize, body); err != nil {
		h.logger.WithFields(map[string]interface{}{
			"payment_id": proof.ID,
		}).ErrorWithErr(err, "Failed to stream payment proof")
	}
}

// Overview returns platform totals
// @Summary Admin overview
// @Tags Admin
// @Produce json
// @Success 200 {object} admin.Overview
// @Security BearerAuth
// @Router /admin/dashboard/overview [get]
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.admin.Overview(r.Context())
	if err != nil {
		handleError(w, h.logger, err, "Failed to build admin overview")
		return
	}
	utils.WriteJSON(w, http.StatusOK, ov)
}

// Users lists accounts, optionally filtered by plan and active flag
// @Summary All users
// @Tags Admin
// @Produce json
// @Param plan query string false "Plan id"
// @Param active query bool false "Only active or inactive accounts"
// @Param page query int false "Page number; omit for every account"
// @Param page_size query int false "Page size (max 200)"
// @Success 200 {object} dto.UsersResponse
// @Security BearerAuth
// @Router /admin/users/all [get]
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	filter := user.Filter{
		Plan:     r.URL.Query().Get("plan"),
		IsActive: utils.QueryBool(r, "active"),
	}

	var resp dto.UsersResponse
	limit, offset := 0, 0
	if page, ok := utils.ParsePage(r); ok {
		limit, offset = page.Size, page.Offset()
		resp.Page, resp.PageSize = page.Number, page.Size
	}

	users, total, err := h.admin.ListUsers(r.Context(), filter, limit, offset)
	if err != nil {
		handleError(w, h.logger, err, "Failed to list users")
		return
	}
	resp.Users, resp.Total = users, total

	utils.WriteJSON(w, http.StatusOK, resp)
}

// UpdateUser changes is_active, is_admin or the plan of an account
// @Summary Update user
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body dto.AdminUserUpdateRequest true "Fields"
// @Success 200 {object} user.User
// @Failure 400 {object} utils.ErrorResponse "Unknown plan"
// @Security BearerAuth
// @Router /admin/users/{id} [put]
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	adminID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var req dto.AdminUserUpdateRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	u, err := h.admin.UpdateUser(r.Context(), adminID, id, req.ToUpdate())
	if err != nil {
		handleError(w, h.logger, err, "Failed to update user")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Utilizador atualizado com sucesso",
		"user":    u,
	})
}

// DeleteUser removes an account
// @Summary Delete user
// @Tags Admin
// @Param id path int true "User ID"
// @Success 200 {object} utils.MessageResponse
// @Security BearerAuth
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	adminID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	if err := h.admin.DeleteUser(r.Context(), adminID, id); err != nil {
		handleError(w, h.logger, err, "Failed to delete user")
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Utilizador eliminado com sucesso")
}

// Settings shows the effective configuration with secrets masked
// @Summary System settings
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/system/settings [get]
func (h *AdminHandler) Settings(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.admin.Settings())
}

// Analytics returns monthly counts for the trailing months
// @Summary Growth analytics
// @Tags Admin
// @Produce json
// @Param months query int false "Months (default 6)"
// @Success 200 {object} admin.Analytics
// @Security BearerAuth
// @Router /admin/reports/analytics [get]
func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	months := 0
	if v := r.URL.Query().Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			utils.WriteError(w, errors.BadRequest("months deve ser um número positivo"))
			return
		}
		months = n
	}

	a, err := h.admin.Analytics(r.Context(), months)
	if err != nil {
		handleError(w, h.logger, err, "Failed to build analytics")
		return
	}
	utils.WriteJSON(w, http.StatusOK, a)
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(pathID(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		utils.WriteError(w, errors.BadRequest("ID de utilizador inválido"))
		return 0, false
	}
	return id, true
}
