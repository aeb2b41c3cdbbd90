package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/growen-ao/growen-api/internal/domain/chat"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
)

// ChatRepository implements chat.Repository
type ChatRepository struct {
	db *sql.DB
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *sql.DB) chat.Repository {
	return &ChatRepository{db: db}
}

// SaveMessage stores the message and creates or bumps its session
func (r *ChatRepository) SaveMessage(ctx context.Context, m *chat.Message, title string) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	ts := unix(m.CreatedAt)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to start transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chat_messages (id, user_id, session_id, message, response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.UserID, m.SessionID, m.Message, m.Response, ts)
	if err != nil {
		return errors.DatabaseError("Failed to save chat message", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, user_id, title, message_count, saved_as_pdf, created_at, updated_at)
		VALUES ($1, $2, $3, 1, FALSE, $4, $5)
		ON CONFLICT (user_id, id) DO UPDATE
		SET message_count = chat_sessions.message_count + 1, updated_at = excluded.updated_at
	`, m.SessionID, m.UserID, title, ts, ts)
	if err != nil {
		return errors.DatabaseError("Failed to update chat session", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit chat message", err)
	}
	return nil
}

// History returns the newest messages first, capped at limit
func (r *ChatRepository) History(ctx context.Context, userID int64, sessionID string, limit int) ([]*chat.Message, error) {
	query := `SELECT id, user_id, session_id, message, response, created_at FROM chat_messages WHERE user_id = $1`
	args := []interface{}{userID}
	if sessionID != "" {
		query += ` AND session_id = $2`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ` + placeholder(len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to read chat history", err)
	}
	defer rows.Close()

	msgs := []*chat.Message{}
	for rows.Next() {
		var m chat.Message
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.UserID, &m.SessionID, &m.Message, &m.Response, &createdAt); err != nil {
			return nil, errors.DatabaseError("Failed to scan chat message", err)
		}
		m.CreatedAt = fromUnix(createdAt)
		msgs = append(msgs, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate chat history", err)
	}
	return msgs, nil
}

func scanSession(row rowScanner) (*chat.Session, error) {
	var s chat.Session
	var createdAt, updatedAt int64
	if err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.MessageCount, &s.SavedAsPDF, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	s.CreatedAt = fromUnix(createdAt)
	s.UpdatedAt = fromUnix(updatedAt)
	return &s, nil
}

// GetSession retrieves one of the user's sessions
func (r *ChatRepository) GetSession(ctx context.Context, userID int64, sessionID string) (*chat.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, message_count, saved_as_pdf, created_at, updated_at
		FROM chat_sessions WHERE user_id = $1 AND id = $2
	`, userID, sessionID)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Chat session")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get chat session", err)
	}
	return s, nil
}

// ListSessions returns the user's sessions, most recent activity first
func (r *ChatRepository) ListSessions(ctx context.Context, userID int64) ([]*chat.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, message_count, saved_as_pdf, created_at, updated_at
		FROM chat_sessions WHERE user_id = $1
		ORDER BY updated_at DESC, id
	`, userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list chat sessions", err)
	}
	defer rows.Close()

	sessions := []*chat.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan chat session", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate chat sessions", err)
	}
	return sessions, nil
}

// MarkSavedAsPDF flags a session as exported
func (r *ChatRepository) MarkSavedAsPDF(ctx context.Context, userID int64, sessionID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE chat_sessions SET saved_as_pdf = $1 WHERE user_id = $2 AND id = $3`,
		true, userID, sessionID)
	if err != nil {
		return errors.DatabaseError("Failed to update chat session", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Chat session")
	}
	return nil
}

// CountSince counts the user's messages at or after since
func (r *ChatRepository) CountSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE user_id = $1 AND created_at >= $2`,
		userID, unix(since)).Scan(&n)
	if err != nil {
		return 0, errors.DatabaseError("Failed to count chat messages", err)
	}
	return n, nil
}

// CountCreatedBetween counts messages of all users in [from, to)
func (r *ChatRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE created_at >= $1 AND created_at < $2`,
		unix(from), unix(to)).Scan(&n)
	if err != nil {
		return 0, errors.DatabaseError("Failed to count chat messages", err)
	}
	return n, nil
}
