package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/growen-ao/growen-api/internal/domain/crm"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
)

// ClientRepository implements crm.Repository
type ClientRepository struct {
	db *sql.DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *sql.DB) crm.Repository {
	return &ClientRepository{db: db}
}

const clientColumns = `id, user_id, name, email, phone, company, industry, status, value, notes, created_at, updated_at`

func scanClient(row rowScanner) (*crm.Client, error) {
	var c crm.Client
	var status string
	var createdAt, updatedAt int64

	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Industry,
		&status, &c.Value, &c.Notes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = crm.Status(status)
	c.CreatedAt = fromUnix(createdAt)
	c.UpdatedAt = fromUnix(updatedAt)
	c.Communications = []*crm.Communication{}
	return &c, nil
}

// Create creates a new client
func (r *ClientRepository) Create(ctx context.Context, c *crm.Client) error {
	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, c.ID, c.UserID, c.Name, c.Email, c.Phone, c.Company, c.Industry,
		string(c.Status), c.Value, c.Notes, unix(c.CreatedAt), unix(c.UpdatedAt))
	if err != nil {
		return errors.DatabaseError("Failed to create client", err)
	}
	return nil
}

// GetByID retrieves a client owned by userID
func (r *ClientRepository) GetByID(ctx context.Context, userID int64, id string) (*crm.Client, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1 AND user_id = $2`, id, userID)
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Client")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get client", err)
	}
	return c, nil
}

// List retrieves the user's clients, newest first
func (r *ClientRepository) List(ctx context.Context, userID int64, filter crm.Filter) ([]*crm.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE user_id = $1`
	args := []interface{}{userID}
	if filter.Status != "" {
		query += ` AND status = $2`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list clients", err)
	}
	defer rows.Close()

	clients := []*crm.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan client", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate clients", err)
	}
	return clients, nil
}

// Update updates a client
func (r *ClientRepository) Update(ctx context.Context, c *crm.Client) error {
	c.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE clients
		SET name = $1, email = $2, phone = $3, company = $4, industry = $5, status = $6,
			value = $7, notes = $8, updated_at = $9
		WHERE id = $10 AND user_id = $11
	`, c.Name, c.Email, c.Phone, c.Company, c.Industry, string(c.Status),
		c.Value, c.Notes, unix(c.UpdatedAt), c.ID, c.UserID)
	if err != nil {
		return errors.DatabaseError("Failed to update client", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Client")
	}
	return nil
}

// Delete deletes a client and its history
func (r *ClientRepository) Delete(ctx context.Context, userID int64, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to start transaction", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM clients WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return errors.DatabaseError("Failed to delete client", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Client")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM client_communications WHERE client_id = $1`, id); err != nil {
		return errors.DatabaseError("Failed to delete client history", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit client deletion", err)
	}
	return nil
}

// Count returns the number of clients the user owns
func (r *ClientRepository) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, errors.DatabaseError("Failed to count clients", err)
	}
	return n, nil
}

// CountByStatus counts the user's clients in one stage
func (r *ClientRepository) CountByStatus(ctx context.Context, userID int64, status crm.Status) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clients WHERE user_id = $1 AND status = $2`, userID, string(status)).Scan(&n)
	if err != nil {
		return 0, errors.DatabaseError("Failed to count clients", err)
	}
	return n, nil
}

// AddCommunication appends a history entry
func (r *ClientRepository) AddCommunication(ctx context.Context, e *crm.Communication) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO client_communications (id, client_id, kind, subject, content, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.ClientID, string(e.Kind), e.Subject, e.Content, e.Status, unix(e.CreatedAt))
	if err != nil {
		return errors.DatabaseError("Failed to add communication", err)
	}
	return nil
}

// ListCommunications returns a client's history, oldest first
func (r *ClientRepository) ListCommunications(ctx context.Context, clientID string) ([]*crm.Communication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, client_id, kind, subject, content, status, created_at
		FROM client_communications WHERE client_id = $1
		ORDER BY created_at, id
	`, clientID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list communications", err)
	}
	defer rows.Close()

	entries := []*crm.Communication{}
	for rows.Next() {
		var e crm.Communication
		var kind string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.ClientID, &kind, &e.Subject, &e.Content, &e.Status, &createdAt); err != nil {
			return nil, errors.DatabaseError("Failed to scan communication", err)
		}
		e.Kind = crm.CommunicationKind(kind)
		e.CreatedAt = fromUnix(createdAt)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate communications", err)
	}
	return entries, nil
}

// CountCreatedBetween counts clients of all users created in [from, to)
func (r *ClientRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clients WHERE created_at >= $1 AND created_at < $2`,
		unix(from), unix(to)).Scan(&n)
	if err != nil {
		return 0, errors.DatabaseError("Failed to count clients", err)
	}
	return n, nil
}
