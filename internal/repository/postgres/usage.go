package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/growen-ao/growen-api/internal/domain/email"
	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/domain/quota"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
)

// UsageCounter implements quota.Counter over the entity tables. Monthly
// features count rows created at or after the start of the current UTC
// month; clients are counted all-time.
type UsageCounter struct {
	db  *sql.DB
	now func() time.Time
}

// NewUsageCounter creates a counter reading the live tables
func NewUsageCounter(db *sql.DB) *UsageCounter {
	return &UsageCounter{db: db, now: time.Now}
}

// WithClock returns a copy of the counter that reads time from now
func (c *UsageCounter) WithClock(now func() time.Time) *UsageCounter {
	return &UsageCounter{db: c.db, now: now}
}

// Count returns usage of f for the user inside the feature's window
func (c *UsageCounter) Count(ctx context.Context, userID int64, f plan.Feature) (int, error) {
	since := quota.Since(f, c.now())
	var lower int64
	if !since.IsZero() {
		lower = unix(since)
	}

	var query string
	args := []interface{}{userID}
	switch f {
	case plan.FeatureClients:
		query = `SELECT COUNT(*) FROM clients WHERE user_id = $1`
	case plan.FeatureAIChats:
		query = `SELECT COUNT(*) FROM chat_messages WHERE user_id = $1 AND created_at >= $2`
		args = append(args, lower)
	case plan.FeatureReports:
		query = `SELECT COUNT(*) FROM reports WHERE user_id = $1 AND created_at >= $2`
		args = append(args, lower)
	case plan.FeatureEmailSends:
		query = `SELECT COUNT(*) FROM email_jobs WHERE user_id = $1 AND created_at >= $2 AND kind = $3`
		args = append(args, lower, string(email.KindClient))
	default:
		return 0, errors.BadRequest(fmt.Sprintf("unknown feature %q", f))
	}

	var n int
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.DatabaseError("Failed to count usage", err)
	}
	return n, nil
}

var _ quota.Counter = (*UsageCounter)(nil)
