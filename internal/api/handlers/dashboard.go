package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/growen-ao/growen-api/internal/api/dto"
	"github.com/growen-ao/growen-api/internal/config"
	"github.com/growen-ao/growen-api/internal/domain/dashboard"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/utils"
)

// DashboardHandler serves the user dashboard and the consultation contact
type DashboardHandler struct {
	dashboard dashboard.Service
	whatsapp  config.WhatsAppConfig
	logger    *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc dashboard.Service, whatsapp config.WhatsAppConfig, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: svc,
		whatsapp:  whatsapp,
		logger:    log,
	}
}

// KPIs returns the caller's headline figures
// @Summary Dashboard KPIs
// @Tags Dashboard
// @Produce json
// @Success 200 {object} dashboard.KPIs
// @Security BearerAuth
// @Router /dashboard/kpis [get]
func (h *DashboardHandler) KPIs(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	k, err := h.dashboard.KPIs(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err, "Failed to compute KPIs")
		return
	}

	utils.WriteJSON(w, http.StatusOK, k)
}

// WhatsAppConfig returns the consultation number and a prefilled link
// @Summary WhatsApp consultation
// @Tags Dashboard
// @Produce json
// @Success 200 {object} dto.WhatsAppConfigResponse
// @Security BearerAuth
// @Router /whatsapp/consultation-config [get]
func (h *DashboardHandler) WhatsAppConfig(w http.ResponseWriter, r *http.Request) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, h.whatsapp.Number)

	utils.WriteJSON(w, http.StatusOK, dto.WhatsAppConfigResponse{
		Number:  h.whatsapp.Number,
		Message: h.whatsapp.Message,
		Link:    "https://wa.me/" + digits + "?text=" + url.QueryEscape(h.whatsapp.Message),
	})
}
