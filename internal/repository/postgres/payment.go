package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/growen-ao/growen-api/internal/domain/payment"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
)

// PaymentRepository implements payment.Repository
type PaymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new payment proof repository
func NewPaymentRepository(db *sql.DB) payment.Repository {
	return &PaymentRepository{db: db}
}

const proofSelect = `
	SELECT p.id, p.user_id, COALESCE(u.email, ''), COALESCE(u.name, ''), p.plan_id, p.amount,
		p.currency, p.reference_number, p.notes, p.file_key, p.file_name, p.content_type,
		p.file_size, p.status, p.admin_notes, p.reviewed_by, p.reviewed_at, p.created_at
	FROM payment_proofs p
	LEFT JOIN users u ON u.id = p.user_id`

func scanProof(row rowScanner) (*payment.Proof, error) {
	var p payment.Proof
	var status string
	var reviewedBy, reviewedAt sql.NullInt64
	var createdAt int64

	if err := row.Scan(&p.ID, &p.UserID, &p.UserEmail, &p.UserName, &p.PlanID, &p.Amount,
		&p.Currency, &p.ReferenceNumber, &p.Notes, &p.FileKey, &p.FileName, &p.ContentType,
		&p.FileSize, &status, &p.AdminNotes, &reviewedBy, &reviewedAt, &createdAt); err != nil {
		return nil, err
	}
	p.Status = payment.Status(status)
	if reviewedBy.Valid {
		id := reviewedBy.Int64
		p.ReviewedBy = &id
	}
	p.ReviewedAt = fromNullUnix(reviewedAt)
	p.CreatedAt = fromUnix(createdAt)
	return &p, nil
}

// Create stores a pending proof
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Proof) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Status == "" {
		p.Status = payment.StatusPending
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_proofs (id, user_id, plan_id, amount, currency, reference_number, notes,
			file_key, file_name, content_type, file_size, status, admin_notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, p.ID, p.UserID, p.PlanID, p.Amount, p.Currency, p.ReferenceNumber, p.Notes,
		p.FileKey, p.FileName, p.ContentType, p.FileSize, string(p.Status), p.AdminNotes, unix(p.CreatedAt))
	if err != nil {
		return errors.DatabaseError("Failed to create payment proof", err)
	}
	return nil
}

// GetByID retrieves a proof
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*payment.Proof, error) {
	p, err := scanProof(r.db.QueryRowContext(ctx, proofSelect+` WHERE p.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Payment")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get payment proof", err)
	}
	return p, nil
}

// List returns proofs matching filter, newest first
func (r *PaymentRepository) List(ctx context.Context, filter payment.Filter) ([]*payment.Proof, error) {
	query := proofSelect + ` WHERE 1 = 1`
	var args []interface{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND p.status = ` + placeholder(len(args))
	}
	if filter.UserID != 0 {
		args = append(args, filter.UserID)
		query += ` AND p.user_id = ` + placeholder(len(args))
	}
	query += ` ORDER BY p.created_at DESC, p.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list payment proofs", err)
	}
	defer rows.Close()

	proofs := []*payment.Proof{}
	for rows.Next() {
		p, err := scanProof(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan payment proof", err)
		}
		proofs = append(proofs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate payment proofs", err)
	}
	return proofs, nil
}

// ApplyReview moves a pending proof to a terminal status. The status guard
// in the WHERE clause makes a concurrent second review a no-op.
func (r *PaymentRepository) ApplyReview(ctx context.Context, rv payment.Review) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payment_proofs
		SET status = $1, admin_notes = $2, reviewed_by = $3, reviewed_at = $4
		WHERE id = $5 AND status = $6
	`, string(rv.Status), rv.AdminNotes, rv.ReviewerID, unix(rv.ReviewedAt), rv.ProofID, string(payment.StatusPending))
	if err != nil {
		return false, errors.DatabaseError("Failed to review payment proof", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.DatabaseError("Failed to get affected rows", err)
	}
	return rows == 1, nil
}

// CountByStatus counts proofs in one status
func (r *PaymentRepository) CountByStatus(ctx context.Context, status payment.Status) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payment_proofs WHERE status = $1`, string(status)).Scan(&n)
	if err != nil {
		return 0, errors.DatabaseError("Failed to count payment proofs", err)
	}
	return n, nil
}

// SumApprovedBetween totals approved amounts reviewed in [from, to). A zero
// from means since the beginning.
func (r *PaymentRepository) SumApprovedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var lower int64
	if !from.IsZero() {
		lower = unix(from)
	}
	var total int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payment_proofs
		WHERE status = $1 AND reviewed_at >= $2 AND reviewed_at < $3
	`, string(payment.StatusApproved), lower, unix(to)).Scan(&total)
	if err != nil {
		return 0, errors.DatabaseError("Failed to sum payments", err)
	}
	return total, nil
}
