package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/growen-ao/growen-api/internal/domain/report"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
)

// ReportRepository implements report.Repository
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sql.DB) report.Repository {
	return &ReportRepository{db: db}
}

const reportColumns = `id, user_id, title, report_type, period, content, insights, chart_data, source, created_at`

func scanReport(row rowScanner) (*report.Report, error) {
	var rep report.Report
	var insights, chartData, source string
	var createdAt int64

	if err := row.Scan(&rep.ID, &rep.UserID, &rep.Title, &rep.Type, &rep.Period, &rep.Content,
		&insights, &chartData, &source, &createdAt); err != nil {
		return nil, err
	}

	rep.Insights = []string{}
	if insights != "" {
		if err := json.Unmarshal([]byte(insights), &rep.Insights); err != nil {
			return nil, err
		}
	}
	if chartData != "" && chartData != "{}" {
		if err := json.Unmarshal([]byte(chartData), &rep.ChartData); err != nil {
			return nil, err
		}
	}
	rep.Source = report.Source(source)
	rep.CreatedAt = fromUnix(createdAt)
	return &rep, nil
}

// Create stores a report
func (r *ReportRepository) Create(ctx context.Context, rep *report.Report) error {
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = time.Now().UTC()
	}
	if rep.Insights == nil {
		rep.Insights = []string{}
	}

	insights, err := json.Marshal(rep.Insights)
	if err != nil {
		return errors.Internal("Failed to encode insights", err)
	}
	chartData := []byte("{}")
	if rep.ChartData != nil {
		if chartData, err = json.Marshal(rep.ChartData); err != nil {
			return errors.Internal("Failed to encode chart data", err)
		}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, rep.ID, rep.UserID, rep.Title, rep.Type, rep.Period, rep.Content,
		string(insights), string(chartData), string(rep.Source), unix(rep.CreatedAt))
	if err != nil {
		return errors.DatabaseError("Failed to create report", err)
	}
	return nil
}

// GetByID retrieves a report owned by userID
func (r *ReportRepository) GetByID(ctx context.Context, userID int64, id string) (*report.Report, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1 AND user_id = $2`, id, userID)
	rep, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Report")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get report", err)
	}
	return rep, nil
}

// List returns the user's reports, newest first
func (r *ReportRepository) List(ctx context.Context, userID int64) ([]*report.Report, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list reports", err)
	}
	defer rows.Close()

	reports := []*report.Report{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan report", err)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate reports", err)
	}
	return reports, nil
}

// Count returns all of the user's reports
func (r *ReportRepository) Count(ctx context.Context, userID int64) (int, error) {
	return r.CountSince(ctx, userID, time.Time{})
}

// CountSince counts the user's reports created at or after since
func (r *ReportRepository) CountSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var n int
	var from int64
	if !since.IsZero() {
		from = unix(since)
	}
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports WHERE user_id = $1 AND created_at >= $2`, userID, from).Scan(&n)
	if err != nil {
		return 0, errors.DatabaseError("Failed to count reports", err)
	}
	return n, nil
}

// CountCreatedBetween counts reports of all users in [from, to)
func (r *ReportRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports WHERE created_at >= $1 AND created_at < $2`,
		unix(from), unix(to)).Scan(&n)
	if err != nil {
		return 0, errors.DatabaseError("Failed to count reports", err)
	}
	return n, nil
}
