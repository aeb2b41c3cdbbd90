package handlers

import (
	"net/http"

	"github.com/growen-ao/growen-api/internal/api/dto"
	"github.com/growen-ao/growen-api/internal/domain/payment"
	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/domain/quota"
	"github.com/growen-ao/growen-api/internal/domain/user"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/utils"
	"github.com/growen-ao/growen-api/internal/pkg/validator"
)

// PlanHandler serves the plan catalog and the caller's subscription
type PlanHandler struct {
	catalog   *plan.Catalog
	users     user.Service
	quota     quota.Gate
	payments  payment.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(catalog *plan.Catalog, users user.Service, gate quota.Gate, payments payment.Service,
	log *logger.Logger, val *validator.Validator) *PlanHandler {
	return &PlanHandler{
		catalog:   catalog,
		users:     users,
		quota:     gate,
		payments:  payments,
		logger:    log,
		validator: val,
	}
}

// Available lists every plan keyed by id
// @Summary List plans
// @Tags Plans
// @Produce json
// @Success 200 {object} map[string]plan.Plan
// @Router /plans/available [get]
func (h *PlanHandler) Available(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]plan.Plan, len(h.catalog.IDs()))
	for _, p := range h.catalog.All() {
		out[p.ID] = p
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

// Current returns the caller's plan, limits and usage
// @Summary Current plan and usage
// @Tags Plans
// @Produce json
// @Success 200 {object} dto.CurrentPlanResponse
// @Security BearerAuth
// @Router /plans/current [get]
func (h *PlanHandler) Current(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err, "Failed to load user")
		return
	}
	p, err := h.catalog.Get(u.Plan)
	if err != nil {
		handleError(w, h.logger, errors.Internal(internalErrorMessage, err), "User plan missing from catalog")
		return
	}
	snapshot, err := h.quota.Snapshot(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err, "Failed to compute usage")
		return
	}

	resp := dto.CurrentPlanResponse{
		Plan:                p.ID,
		Name:                p.Name,
		Price:               p.Price,
		Currency:            p.Currency,
		Limits:              make(map[string]int, len(p.Limits)),
		Usage:               make(map[string]quota.Usage, len(snapshot)),
		SubscriptionExpires: u.SubscriptionExpires,
	}
	for f, l := range p.Limits {
		resp.Limits[f.String()] = l
	}
	for f, usage := range snapshot {
		resp.Usage[f.String()] = usage
	}

	utils.WriteJSON(w, http.StatusOK, resp)
}

// Upgrade records the intent to upgrade and returns transfer instructions.
// The plan only changes once an administrator approves a proof.
// @Summary Request a plan upgrade
// @Tags Plans
// @Accept json
// @Produce json
// @Param request body dto.UpgradeRequest true "Target plan"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /plans/upgrade [post]
func (h *PlanHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.UpgradeRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	resp, err := h.payments.RequestUpgrade(r.Context(), userID, req.PlanID)
	if err != nil {
		handleError(w, h.logger, err, "Failed to request upgrade")
		return
	}

	utils.WriteJSON(w, http.StatusOK, resp)
}
