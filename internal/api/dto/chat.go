package dto

// ChatRequest sends a message to the consultant
type ChatRequest struct {
	Message   string `json:"message" validate:"required,max=4000"`
	SessionID string `json:"session_id,omitempty" validate:"max=64"`
}
