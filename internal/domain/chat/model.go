package chat

import (
	"context"
	"time"
)

// HistoryLimit caps how many messages a history read returns
const HistoryLimit = 50

// Message is one exchange between a user and the consultant
type Message struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	SessionID string    `json:"session_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"timestamp"`
}

// Session groups messages of one conversation
type Session struct {
	ID           string    `json:"session_id"`
	UserID       int64     `json:"user_id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	SavedAsPDF   bool      `json:"saved_as_pdf"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"last_message_at"`
}

// Turn is a prior exchange passed to the consultant as context
type Turn struct {
	Message  string
	Response string
}

// Reply is the result of sending a message
type Reply struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	MessageID string `json:"message_id"`
}

// Consultant produces answers for the AI consulting chat
type Consultant interface {
	// Consult answers prompt under system, given prior turns oldest first
	Consult(ctx context.Context, system string, history []Turn, prompt string) (string, error)
	// Name identifies the backend for logs and metrics
	Name() string
}

// Repository defines chat persistence
type Repository interface {
	// SaveMessage stores the message and creates or bumps its session
	SaveMessage(ctx context.Context, m *Message, title string) error
	// History returns the newest messages first, capped at limit
	History(ctx context.Context, userID int64, sessionID string, limit int) ([]*Message, error)
	GetSession(ctx context.Context, userID int64, sessionID string) (*Session, error)
	ListSessions(ctx context.Context, userID int64) ([]*Session, error)
	MarkSavedAsPDF(ctx context.Context, userID int64, sessionID string) error
	CountSince(ctx context.Context, userID int64, since time.Time) (int, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
}

// Service defines chat business logic
type Service interface {
	Send(ctx context.Context, userID int64, message, sessionID string) (*Reply, error)
	History(ctx context.Context, userID int64, sessionID string) ([]*Message, error)
	Sessions(ctx context.Context, userID int64) ([]*Session, error)
	// ExportPDF renders the session and flags it as saved
	ExportPDF(ctx context.Context, userID int64, sessionID string) ([]byte, string, error)
}
