package handlers

import (
	"net/http"

	"github.com/growen-ao/growen-api/internal/api/dto"
	"github.com/growen-ao/growen-api/internal/domain/chat"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/utils"
	"github.com/growen-ao/growen-api/internal/pkg/validator"
)

// ChatHandler handles the AI consulting chat
type ChatHandler struct {
	chat      chat.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService chat.Service, log *logger.Logger, val *validator.Validator) *ChatHandler {
	return &ChatHandler{
		chat:      chatService,
		logger:    log,
		validator: val,
	}
}

// Send forwards a message to the consultant
// @Summary Ask the consultant
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Message"
// @Success 200 {object} chat.Reply
// @Failure 403 {object} utils.ErrorResponse "Plan limit reached"
// @Security BearerAuth
// @Router /chat [post]
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.ChatRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	reply, err := h.chat.Send(r.Context(), userID, req.Message, req.SessionID)
	if err != nil {
		handleError(w, h.logger, err, "Failed to process chat message")
		return
	}

	utils.WriteJSON(w, http.StatusOK, reply)
}

// History returns the latest messages, optionally for one session
// @Summary Chat history
// @Tags Chat
// @Produce json
// @Param session_id query string false "Session"
// @Success 200 {array} chat.Message
// @Security BearerAuth
// @Router /chat/history [get]
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	msgs, err := h.chat.History(r.Context(), userID, r.URL.Query().Get("session_id"))
	if err != nil {
		handleError(w, h.logger, err, "Failed to load chat history")
		return
	}
	if msgs == nil {
		msgs = []*chat.Message{}
	}

	utils.WriteJSON(w, http.StatusOK, msgs)
}

// Sessions lists the caller's conversations
// @Summary Chat sessions
// @Tags Chat
// @Produce json
// @Success 200 {array} chat.Session
// @Security BearerAuth
// @Router /chat/sessions [get]
func (h *ChatHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	sessions, err := h.chat.Sessions(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err, "Failed to list chat sessions")
		return
	}
	if sessions == nil {
		sessions = []*chat.Session{}
	}

	utils.WriteJSON(w, http.StatusOK, sessions)
}

// ExportPDF renders a session as PDF and marks it saved
// @Summary Export session as PDF
// @Tags Chat
// @Produce application/pdf
// @Param session_id path string true "Session"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /chat/{session_id}/export-pdf [post]
func (h *ChatHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	body, name, err := h.chat.ExportPDF(r.Context(), userID, pathID(r, "session_id"))
	if err != nil {
		handleError(w, h.logger, err, "Failed to export chat session")
		return
	}

	utils.WriteAttachment(w, "application/pdf", name, body)
}
