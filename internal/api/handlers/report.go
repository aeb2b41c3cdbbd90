package handlers

import (
	"io"
	"net/http"

	"github.com/growen-ao/growen-api/internal/api/dto"
	"github.com/growen-ao/growen-api/internal/domain/report"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/utils"
	"github.com/growen-ao/growen-api/internal/pkg/validator"
)

const maxCSVUpload = 5 << 20

// ReportHandler handles report generation and retrieval
type ReportHandler struct {
	reports   report.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports report.Service, log *logger.Logger, val *validator.Validator) *ReportHandler {
	return &ReportHandler{
		reports:   reports,
		logger:    log,
		validator: val,
	}
}

// Generate asks the consultant to analyse the submitted data
// @Summary AI report
// @Tags Reports
// @Accept json
// @Produce json
// @Param request body dto.GenerateReportRequest true "Business data"
// @Success 200 {object} report.Report
// @Failure 403 {object} utils.ErrorResponse "Plan limit reached"
// @Security BearerAuth
// @Router /reports/generate [post]
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.GenerateReportRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	rep, err := h.reports.Generate(r.Context(), userID, req.Data)
	if err != nil {
		handleError(w, h.logger, err, "Failed to generate report")
		return
	}

	utils.WriteJSON(w, http.StatusOK, rep)
}

// GenerateCustom builds a report from the caller's CRM, chat and invoices
// @Summary Custom report
// @Tags Reports
// @Accept json
// @Produce json
// @Param request body dto.CustomReportRequest true "Report options"
// @Success 200 {object} dto.ReportCreatedResponse
// @Security BearerAuth
// @Router /reports/generate-custom [post]
func (h *ReportHandler) GenerateCustom(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.CustomReportRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	rep, err := h.reports.GenerateCustom(r.Context(), userID, req.ToCustom())
	if err != nil {
		handleError(w, h.logger, err, "Failed to generate custom report")
		return
	}

	utils.WriteJSON(w, http.StatusOK, dto.ReportCreatedResponse{
		Message:  "Relatório gerado com sucesso",
		ReportID: rep.ID,
		Title:    rep.Title,
	})
}

// UploadCSV analyses an uploaded CSV file
// @Summary Analyse CSV
// @Tags Reports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file (max 5 MB)"
// @Success 200 {object} dto.ReportCreatedResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /reports/upload-csv [post]
func (h *ReportHandler) UploadCSV(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	file, header, appErr := openUpload(w, r, maxCSVUpload)
	if appErr != nil {
		utils.WriteError(w, appErr)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxCSVUpload+1))
	if err != nil {
		utils.WriteError(w, errors.BadRequest("Não foi possível ler o ficheiro"))
		return
	}

	rep, summary, err := h.reports.AnalyzeCSV(r.Context(), userID, header.Filename, data)
	if err != nil {
		handleError(w, h.logger, err, "Failed to analyse CSV")
		return
	}

	rows := summary.TotalRows
	utils.WriteJSON(w, http.StatusOK, dto.ReportCreatedResponse{
		Message:  "Ficheiro analisado com sucesso",
		ReportID: rep.ID,
		Title:    rep.Title,
		Insights: rep.Insights,
		Rows:     &rows,
	})
}

// List returns the caller's reports, newest first
// @Summary List reports
// @Tags Reports
// @Produce json
// @Success 200 {array} report.Report
// @Security BearerAuth
// @Router /reports [get]
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	reports, err := h.reports.List(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err, "Failed to list reports")
		return
	}
	if reports == nil {
		reports = []*report.Report{}
	}

	utils.WriteJSON(w, http.StatusOK, reports)
}

// Get returns one report
// @Summary Get report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} report.Report
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	rep, err := h.reports.Get(r.Context(), userID, pathID(r, "id"))
	if err != nil {
		handleError(w, h.logger, err, "Failed to get report")
		return
	}

	utils.WriteJSON(w, http.StatusOK, rep)
}

// PDF downloads a report as PDF
// @Summary Report PDF
// @Tags Reports
// @Produce application/pdf
// @Param id path string true "Report ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/{id}/pdf [get]
func (h *ReportHandler) PDF(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	body, name, err := h.reports.RenderPDF(r.Context(), userID, pathID(r, "id"))
	if err != nil {
		handleError(w, h.logger, err, "Failed to render report PDF")
		return
	}

	utils.WriteAttachment(w, "application/pdf", name, body)
}
