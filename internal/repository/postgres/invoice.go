package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/growen-ao/growen-api/internal/domain/invoice"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
)

// InvoiceRepository implements invoice.Repository
type InvoiceRepository struct {
	db *sql.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB) invoice.Repository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `id, user_id, client_id, client_name, client_email, invoice_number,
	service_description, quantity, unit_price, subtotal, tax, total, notes, payment_status,
	due_date, paid_at, created_at`

func scanInvoice(row rowScanner) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	var status string
	var dueDate, createdAt int64
	var paidAt sql.NullInt64

	if err := row.Scan(&inv.ID, &inv.UserID, &inv.ClientID, &inv.ClientName, &inv.ClientEmail,
		&inv.Number, &inv.ServiceDescription, &inv.Quantity, &inv.UnitPrice, &inv.Subtotal,
		&inv.Tax, &inv.Total, &inv.Notes, &status, &dueDate, &paidAt, &createdAt); err != nil {
		return nil, err
	}
	inv.PaymentStatus = invoice.PaymentStatus(status)
	inv.DueDate = fromUnix(dueDate)
	inv.PaidAt = fromNullUnix(paidAt)
	inv.CreatedAt = fromUnix(createdAt)
	return &inv, nil
}

// Create stores an invoice
func (r *InvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, inv.ID, inv.UserID, inv.ClientID, inv.ClientName, inv.ClientEmail, inv.Number,
		inv.ServiceDescription, inv.Quantity, inv.UnitPrice, inv.Subtotal, inv.Tax, inv.Total,
		inv.Notes, string(inv.PaymentStatus), unix(inv.DueDate), nullUnix(inv.PaidAt), unix(inv.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict("Número de fatura duplicado")
		}
		return errors.DatabaseError("Failed to create invoice", err)
	}
	return nil
}

// GetByID retrieves an invoice owned by userID
func (r *InvoiceRepository) GetByID(ctx context.Context, userID int64, id string) (*invoice.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 AND user_id = $2`, id, userID)
	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Invoice")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get invoice", err)
	}
	return inv, nil
}

// List returns the user's invoices, newest first
func (r *InvoiceRepository) List(ctx context.Context, userID int64) ([]*invoice.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE user_id = $1 ORDER BY created_at DESC, invoice_number DESC`, userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list invoices", err)
	}
	defer rows.Close()

	invoices := []*invoice.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan invoice", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate invoices", err)
	}
	return invoices, nil
}

// UpdateStatus changes the payment status of an invoice
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, userID int64, id string, status invoice.PaymentStatus, paidAt *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET payment_status = $1, paid_at = $2 WHERE id = $3 AND user_id = $4`,
		string(status), nullUnix(paidAt), id, userID)
	if err != nil {
		return errors.DatabaseError("Failed to update invoice", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Invoice")
	}
	return nil
}

// ExistsForClientSince reports whether the client was invoiced at or after since
func (r *InvoiceRepository) ExistsForClientSince(ctx context.Context, clientID string, since time.Time) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invoices WHERE client_id = $1 AND created_at >= $2`,
		clientID, unix(since)).Scan(&n)
	if err != nil {
		return false, errors.DatabaseError("Failed to check invoices", err)
	}
	return n > 0, nil
}

// SumPaidSince totals the user's invoices paid at or after since
func (r *InvoiceRepository) SumPaidSince(ctx context.Context, userID int64, since time.Time) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total), 0) FROM invoices
		WHERE user_id = $1 AND payment_status = $2 AND paid_at >= $3
	`, userID, string(invoice.StatusPaid), unix(since)).Scan(&total)
	if err != nil {
		return 0, errors.DatabaseError("Failed to sum invoices", err)
	}
	return total, nil
}

// NextSequence returns the next invoice number for the user
func (r *InvoiceRepository) NextSequence(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, errors.DatabaseError("Failed to count invoices", err)
	}
	return n + 1, nil
}
