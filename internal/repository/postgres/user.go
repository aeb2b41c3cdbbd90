package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/growen-ao/growen-api/internal/domain/admin"
	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/domain/user"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
)

// UserRepository implements user.Repository
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) user.Repository {
	return &UserRepository{db: db}
}

// NewUserStats returns the platform-wide user aggregates
func NewUserStats(db *sql.DB) admin.Stats {
	return &UserRepository{db: db}
}

const userColumns = `id, email, name, password_hash, company, phone, industry, plan,
	is_admin, is_active, subscription_expires, reset_token_hash, reset_token_expires,
	created_at, updated_at`

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	var subExpires, resetExpires sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Company, &u.Phone, &u.Industry, &u.Plan,
		&u.IsAdmin, &u.IsActive, &subExpires, &u.ResetTokenHash, &resetExpires,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.SubscriptionExpires = fromNullUnix(subExpires)
	u.ResetTokenExpires = fromNullUnix(resetExpires)
	u.CreatedAt = fromUnix(createdAt)
	u.UpdatedAt = fromUnix(updatedAt)
	return &u, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Plan == "" {
		u.Plan = plan.Free
	}

	query := `
		INSERT INTO users (email, name, password_hash, company, phone, industry, plan,
			is_admin, is_active, subscription_expires, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		u.Email, u.Name, u.PasswordHash, u.Company, u.Phone, u.Industry, u.Plan,
		u.IsAdmin, u.IsActive, nullUnix(u.SubscriptionExpires), unix(now), unix(now),
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict("Email já registado")
		}
		return errors.DatabaseError("Failed to create user", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}
	return u, nil
}

// GetByResetTokenHash retrieves the user holding an unexpired reset token
func (r *UserRepository) GetByResetTokenHash(ctx context.Context, hash string, now time.Time) (*user.User, error) {
	if hash == "" {
		return nil, errors.NotFound("User")
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_token_hash = $1 AND reset_token_expires > $2`,
		hash, unix(now))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}
	return u, nil
}

// Update updates a user
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET name = $1, password_hash = $2, company = $3, phone = $4, industry = $5, plan = $6,
			is_admin = $7, is_active = $8, subscription_expires = $9, reset_token_hash = $10,
			reset_token_expires = $11, updated_at = $12
		WHERE id = $13
	`

	result, err := r.db.ExecContext(ctx, query,
		u.Name, u.PasswordHash, u.Company, u.Phone, u.Industry, u.Plan,
		u.IsAdmin, u.IsActive, nullUnix(u.SubscriptionExpires), u.ResetTokenHash,
		nullUnix(u.ResetTokenExpires), unix(u.UpdatedAt), u.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("User")
	}

	return nil
}

// UpdatePlan sets the plan and subscription expiry
func (r *UserRepository) UpdatePlan(ctx context.Context, id int64, planID string, expires *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET plan = $1, subscription_expires = $2, updated_at = $3 WHERE id = $4`,
		planID, nullUnix(expires), unix(time.Now()), id,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update plan", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("User")
	}
	return nil
}

// Delete removes a user and everything the user owns
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to start transaction", err)
	}
	defer tx.Rollback()

	owned := []string{
		`DELETE FROM client_communications WHERE client_id IN (SELECT id FROM clients WHERE user_id = $1)`,
		`DELETE FROM clients WHERE user_id = $1`,
		`DELETE FROM chat_messages WHERE user_id = $1`,
		`DELETE FROM chat_sessions WHERE user_id = $1`,
		`DELETE FROM reports WHERE user_id = $1`,
		`DELETE FROM invoices WHERE user_id = $1`,
		`DELETE FROM payment_proofs WHERE user_id = $1`,
		`DELETE FROM email_jobs WHERE user_id = $1`,
	}
	for _, q := range owned {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return errors.DatabaseError("Failed to delete user data", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.DatabaseError("Failed to delete user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("User")
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit user deletion", err)
	}
	return nil
}

func userFilterClause(filter user.Filter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, strings.Replace(cond, "?", placeholder(len(args)), 1))
	}

	if filter.Plan != "" {
		add("plan = ?", filter.Plan)
	}
	if filter.IsActive != nil {
		add("is_active = ?", *filter.IsActive)
	}
	if filter.IsAdmin != nil {
		add("is_admin = ?", *filter.IsAdmin)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List retrieves users with pagination; limit <= 0 returns all
func (r *UserRepository) List(ctx context.Context, filter user.Filter, limit, offset int) ([]*user.User, int64, error) {
	where, args := userFilterClause(filter)

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count users", err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY id DESC`
	if limit > 0 {
		query += " LIMIT " + placeholder(len(args)+1) + " OFFSET " + placeholder(len(args)+2)
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list users", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan user", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to iterate users", err)
	}

	return users, total, nil
}

// ListExpired returns paid users whose subscription ended before now
func (r *UserRepository) ListExpired(ctx context.Context, now time.Time) ([]*user.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE plan <> $1 AND subscription_expires IS NOT NULL AND subscription_expires < $2
		 ORDER BY id`,
		plan.Free, unix(now))
	if err != nil {
		return nil, errors.DatabaseError("Failed to list expired subscriptions", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate users", err)
	}
	return users, nil
}

// CountUsers counts users matching filter
func (r *UserRepository) CountUsers(ctx context.Context, filter user.Filter) (int, error) {
	where, args := userFilterClause(filter)
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&n); err != nil {
		return 0, errors.DatabaseError("Failed to count users", err)
	}
	return n, nil
}

// PlanDistribution counts users per plan
func (r *UserRepository) PlanDistribution(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT plan, COUNT(*) FROM users GROUP BY plan`)
	if err != nil {
		return nil, errors.DatabaseError("Failed to count plans", err)
	}
	defer rows.Close()

	dist := make(map[string]int)
	for rows.Next() {
		var p string
		var n int
		if err := rows.Scan(&p, &n); err != nil {
			return nil, errors.DatabaseError("Failed to scan plan count", err)
		}
		dist[p] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate plan counts", err)
	}
	return dist, nil
}

// CountUsersCreatedBetween counts users created in [from, to)
func (r *UserRepository) CountUsersCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE created_at >= $1 AND created_at < $2`,
		unix(from), unix(to)).Scan(&n)
	if err != nil {
		return 0, errors.DatabaseError("Failed to count users", err)
	}
	return n, nil
}

// DowngradeExpired moves an expired paid user to the free plan in a single
// conditional update
func (r *UserRepository) DowngradeExpired(ctx context.Context, id int64, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET plan = $1, subscription_expires = NULL, updated_at = $2
		 WHERE id = $3 AND plan <> $1 AND subscription_expires IS NOT NULL AND subscription_expires < $4`,
		plan.Free, unix(now), id, unix(now))
	if err != nil {
		return false, errors.DatabaseError("Failed to downgrade subscription", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.DatabaseError("Failed to get affected rows", err)
	}
	return rows == 1, nil
}
