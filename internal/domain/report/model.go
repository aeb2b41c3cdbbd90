package report

import (
	"context"
	"time"
)

// Source records how a report was produced
type Source string

const (
	SourceAI     Source = "ai"
	SourceCustom Source = "custom"
	SourceCSV    Source = "csv"
)

// Report is an immutable analysis document
type Report struct {
	ID        string                 `json:"id"`
	UserID    int64                  `json:"user_id"`
	Title     string                 `json:"title"`
	Type      string                 `json:"report_type"`
	Period    string                 `json:"period,omitempty"`
	Content   string                 `json:"content"`
	Insights  []string               `json:"insights"`
	ChartData map[string]interface{} `json:"chart_data,omitempty"`
	Source    Source                 `json:"source"`
	CreatedAt time.Time              `json:"created_at"`
}

// DateRange bounds a custom report
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CustomRequest configures a report built from the user's own figures
type CustomRequest struct {
	Title           string
	Type            string
	Period          string
	DateRange       DateRange
	IncludeCharts   bool
	IncludeInsights bool
	Sections        []string
}

// ColumnStats summarises one numeric CSV column
type ColumnStats struct {
	Sum   float64 `json:"sum"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// CSVSummary is the result of analysing an uploaded CSV
type CSVSummary struct {
	TotalRows int                    `json:"total_rows"`
	Columns   []string               `json:"columns"`
	Numeric   map[string]ColumnStats `json:"numeric_columns"`
}

// Repository defines report persistence
type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, userID int64, id string) (*Report, error)
	List(ctx context.Context, userID int64) ([]*Report, error)
	Count(ctx context.Context, userID int64) (int, error)
	CountSince(ctx context.Context, userID int64, since time.Time) (int, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
}

// Service defines report business logic
type Service interface {
	Generate(ctx context.Context, userID int64, data map[string]interface{}) (*Report, error)
	GenerateCustom(ctx context.Context, userID int64, req CustomRequest) (*Report, error)
	AnalyzeCSV(ctx context.Context, userID int64, filename string, data []byte) (*Report, *CSVSummary, error)
	Get(ctx context.Context, userID int64, id string) (*Report, error)
	List(ctx context.Context, userID int64) ([]*Report, error)
	RenderPDF(ctx context.Context, userID int64, id string) ([]byte, string, error)
}
