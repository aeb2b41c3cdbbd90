package handlers

import (
	"net/http"

	"github.com/growen-ao/growen-api/internal/api/dto"
	"github.com/growen-ao/growen-api/internal/domain/crm"
	"github.com/growen-ao/growen-api/internal/domain/email"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/utils"
	"github.com/growen-ao/growen-api/internal/pkg/validator"
)

// CRMHandler handles client management requests
type CRMHandler struct {
	crm       crm.Service
	emails    email.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewCRMHandler creates a new CRM handler
func NewCRMHandler(crmService crm.Service, emails email.Service, log *logger.Logger, val *validator.Validator) *CRMHandler {
	return &CRMHandler{
		crm:       crmService,
		emails:    emails,
		logger:    log,
		validator: val,
	}
}

// Create adds a client, subject to the clients quota
// @Summary Create client
// @Tags CRM
// @Accept json
// @Produce json
// @Param request body dto.CreateClientRequest true "Client"
// @Success 201 {object} crm.Client
// @Failure 403 {object} utils.ErrorResponse "Plan limit reached"
// @Security BearerAuth
// @Router /crm/clients [post]
func (h *CRMHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.CreateClientRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	c, err := h.crm.Create(r.Context(), userID, req.ToClient())
	if err != nil {
		handleError(w, h.logger, err, "Failed to create client")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, c)
}

// List returns the caller's clients, optionally filtered by status
// @Summary List clients
// @Tags CRM
// @Produce json
// @Param status query string false "Pipeline status"
// @Success 200 {array} crm.Client
// @Security BearerAuth
// @Router /crm/clients [get]
func (h *CRMHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	filter := crm.Filter{}
	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = crm.Status(s)
		if !filter.Status.IsValid() {
			utils.WriteError(w, errors.BadRequest("Estado inválido"))
			return
		}
	}

	clients, err := h.crm.List(r.Context(), userID, filter)
	if err != nil {
		handleError(w, h.logger, err, "Failed to list clients")
		return
	}
	if clients == nil {
		clients = []*crm.Client{}
	}

	utils.WriteJSON(w, http.StatusOK, clients)
}

// Get returns one client with its communication history
// @Summary Get client
// @Tags CRM
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {object} crm.Client
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /crm/clients/{id} [get]
func (h *CRMHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	c, err := h.crm.Get(r.Context(), userID, pathID(r, "id"))
	if err != nil {
		handleError(w, h.logger, err, "Failed to get client")
		return
	}

	utils.WriteJSON(w, http.StatusOK, c)
}

// Update applies a partial update
// @Summary Update client
// @Tags CRM
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param request body dto.UpdateClientRequest true "Fields to change"
// @Success 200 {object} dto.ClientResponse
// @Security BearerAuth
// @Router /crm/clients/{id} [put]
func (h *CRMHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.UpdateClientRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	c, err := h.crm.Update(r.Context(), userID, pathID(r, "id"), req.ToUpdate())
	if err != nil {
		handleError(w, h.logger, err, "Failed to update client")
		return
	}

	utils.WriteJSON(w, http.StatusOK, dto.ClientResponse{
		Message: "Cliente atualizado com sucesso",
		Client:  c,
	})
}

// Delete removes a client
// @Summary Delete client
// @Tags CRM
// @Param id path string true "Client ID"
// @Success 200 {object} utils.MessageResponse
// @Security BearerAuth
// @Router /crm/clients/{id} [delete]
func (h *CRMHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.crm.Delete(r.Context(), userID, pathID(r, "id")); err != nil {
		handleError(w, h.logger, err, "Failed to delete client")
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Cliente eliminado com sucesso")
}

// AddCommunication appends an entry to the client's history
// @Summary Add communication
// @Tags CRM
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param request body dto.CommunicationRequest true "Entry"
// @Success 201 {object} crm.Communication
// @Security BearerAuth
// @Router /crm/clients/{id}/communications [post]
func (h *CRMHandler) AddCommunication(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.CommunicationRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	entry, err := h.crm.AddCommunication(r.Context(), userID, pathID(r, "id"),
		crm.CommunicationKind(req.Type), req.Subject, req.Content)
	if err != nil {
		handleError(w, h.logger, err, "Failed to add communication")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, entry)
}

// SendEmail delivers a message to the client right away. A delivery
// failure is reported in the body with status "failed".
// @Summary Email a client
// @Tags CRM
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param request body dto.SendEmailRequest true "Message"
// @Success 200 {object} dto.SendEmailResponse
// @Failure 403 {object} utils.ErrorResponse "Plan limit reached"
// @Security BearerAuth
// @Router /crm/clients/{id}/send-email [post]
func (h *CRMHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.SendEmailRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}
	clientID := pathID(r, "id")
	if req.ClientID != "" && req.ClientID != clientID {
		utils.WriteError(w, errors.BadRequest("client_id não corresponde ao cliente do pedido"))
		return
	}

	job, err := h.crm.SendEmail(r.Context(), userID, clientID, req.Subject, req.Content)
	if err != nil {
		handleError(w, h.logger, err, "Failed to send client email")
		return
	}

	msg := "Email enviado com sucesso"
	if job.Status != email.StatusSent {
		msg = "Não foi possível enviar o email"
	}
	utils.WriteJSON(w, http.StatusOK, dto.SendEmailResponse{
		Message: msg,
		Status:  job.Status,
		JobID:   job.ID,
	})
}

// CallLinks returns tel: and WhatsApp links for the client
// @Summary Client call links
// @Tags CRM
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {object} crm.CallLinks
// @Security BearerAuth
// @Router /crm/clients/{id}/call-link [get]
func (h *CRMHandler) CallLinks(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	links, err := h.crm.CallLinks(r.Context(), userID, pathID(r, "id"))
	if err != nil {
		handleError(w, h.logger, err, "Failed to build call links")
		return
	}

	utils.WriteJSON(w, http.StatusOK, links)
}

// Templates returns the built-in email templates
// @Summary Email templates
// @Tags CRM
// @Produce json
// @Success 200 {array} crm.EmailTemplate
// @Security BearerAuth
// @Router /email-templates [get]
func (h *CRMHandler) Templates(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.crm.Templates())
}

// EmailJob reports the delivery status of one of the caller's emails
// @Summary Email job status
// @Tags CRM
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} email.Job
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /email-jobs/{id} [get]
func (h *CRMHandler) EmailJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	job, err := h.emails.Get(r.Context(), userID, pathID(r, "id"))
	if err != nil {
		handleError(w, h.logger, err, "Failed to get email job")
		return
	}

	utils.WriteJSON(w, http.StatusOK, job)
}
