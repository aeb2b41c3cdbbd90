package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/growen-ao/growen-api/internal/domain/email"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
)

// EmailJobRepository implements email.Repository
type EmailJobRepository struct {
	db *sql.DB
}

// NewEmailJobRepository creates a new email job repository
func NewEmailJobRepository(db *sql.DB) email.Repository {
	return &EmailJobRepository{db: db}
}

const emailJobColumns = `id, user_id, client_id, kind, to_email, to_name, subject, body, status,
	attempts, last_error, created_at, updated_at, sent_at`

func scanEmailJob(row rowScanner) (*email.Job, error) {
	var j email.Job
	var kind, status string
	var createdAt, updatedAt int64
	var sentAt sql.NullInt64

	if err := row.Scan(&j.ID, &j.UserID, &j.ClientID, &kind, &j.ToEmail, &j.ToName, &j.Subject,
		&j.Body, &status, &j.Attempts, &j.LastError, &createdAt, &updatedAt, &sentAt); err != nil {
		return nil, err
	}
	j.Kind = email.Kind(kind)
	j.Status = email.Status(status)
	j.CreatedAt = fromUnix(createdAt)
	j.UpdatedAt = fromUnix(updatedAt)
	j.SentAt = fromNullUnix(sentAt)
	return &j, nil
}

// Create stores a job. A job arriving as sending is stored already claimed
// and is never listed by ListPending; anything else is stored pending.
func (r *EmailJobRepository) Create(ctx context.Context, j *email.Job) error {
	now := time.Now().UTC()
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = j.CreatedAt
	if j.Status != email.StatusSending {
		j.Status = email.StatusPending
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_jobs (`+emailJobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, j.ID, j.UserID, j.ClientID, string(j.Kind), j.ToEmail, j.ToName, j.Subject, j.Body,
		string(j.Status), j.Attempts, j.LastError, unix(j.CreatedAt), unix(j.UpdatedAt), nullUnix(j.SentAt))
	if err != nil {
		return errors.DatabaseError("Failed to create email job", err)
	}
	return nil
}

// GetByID retrieves a job
func (r *EmailJobRepository) GetByID(ctx context.Context, id string) (*email.Job, error) {
	j, err := scanEmailJob(r.db.QueryRowContext(ctx, `SELECT `+emailJobColumns+` FROM email_jobs WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Email job")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get email job", err)
	}
	return j, nil
}

// Claim moves a pending job to sending and counts the attempt
func (r *EmailJobRepository) Claim(ctx context.Context, id string, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE email_jobs SET status = $1, attempts = attempts + 1, updated_at = $2
		WHERE id = $3 AND status = $4
	`, string(email.StatusSending), unix(now), id, string(email.StatusPending))
	if err != nil {
		return false, errors.DatabaseError("Failed to claim email job", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.DatabaseError("Failed to get affected rows", err)
	}
	return rows == 1, nil
}

// MarkSent records a successful delivery
func (r *EmailJobRepository) MarkSent(ctx context.Context, id string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_jobs SET status = $1, last_error = '', updated_at = $2, sent_at = $3 WHERE id = $4
	`, string(email.StatusSent), unix(now), unix(now), id)
	if err != nil {
		return errors.DatabaseError("Failed to mark email job sent", err)
	}
	return nil
}

// MarkFailed records a failed attempt
func (r *EmailJobRepository) MarkFailed(ctx context.Context, id string, errMsg string, retry bool, now time.Time) error {
	status := email.StatusFailed
	if retry {
		status = email.StatusPending
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_jobs SET status = $1, last_error = $2, updated_at = $3 WHERE id = $4
	`, string(status), errMsg, unix(now), id)
	if err != nil {
		return errors.DatabaseError("Failed to mark email job failed", err)
	}
	return nil
}

// ListPending returns the oldest pending jobs
func (r *EmailJobRepository) ListPending(ctx context.Context, limit int) ([]*email.Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+emailJobColumns+` FROM email_jobs WHERE status = $1
		ORDER BY created_at, id LIMIT $2
	`, string(email.StatusPending), limit)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list pending email jobs", err)
	}
	defer rows.Close()

	var jobs []*email.Job
	for rows.Next() {
		j, err := scanEmailJob(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan email job", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate email jobs", err)
	}
	return jobs, nil
}

// CountSince counts the user's jobs of one kind created at or after since
func (r *EmailJobRepository) CountSince(ctx context.Context, userID int64, kind email.Kind, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM email_jobs WHERE user_id = $1 AND kind = $2 AND created_at >= $3
	`, userID, string(kind), unix(since)).Scan(&n)
	if err != nil {
		return 0, errors.DatabaseError("Failed to count email jobs", err)
	}
	return n, nil
}
