package dto

import "github.com/growen-ao/growen-api/internal/domain/report"

// GenerateReportRequest asks the consultant to analyse free-form data
type GenerateReportRequest struct {
	Data map[string]interface{} `json:"data" validate:"required"`
}

// DateRangeRequest bounds a custom report
type DateRangeRequest struct {
	Start string `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `json:"end" validate:"omitempty,datetime=2006-01-02"`
}

// CustomReportRequest builds a report from the caller's own figures
type CustomReportRequest struct {
	Title           string           `json:"title" validate:"required,max=200"`
	Type            string           `json:"type" validate:"required,max=60"`
	Period          string           `json:"period,omitempty" validate:"max=60"`
	DateRange       DateRangeRequest `json:"date_range"`
	IncludeCharts   bool             `json:"include_charts"`
	IncludeInsights bool             `json:"include_insights"`
	Sections        []string         `json:"sections,omitempty" validate:"max=20,dive,max=60"`
}

// ToCustom converts the request to the domain type
func (c CustomReportRequest) ToCustom() report.CustomRequest {
	return report.CustomRequest{
		Title:           c.Title,
		Type:            c.Type,
		Period:          c.Period,
		DateRange:       report.DateRange{Start: c.DateRange.Start, End: c.DateRange.End},
		IncludeCharts:   c.IncludeCharts,
		IncludeInsights: c.IncludeInsights,
		Sections:        c.Sections,
	}
}

// ReportCreatedResponse acknowledges a stored report
type ReportCreatedResponse struct {
	Message  string   `json:"message"`
	ReportID string   `json:"report_id"`
	Title    string   `json:"title,omitempty"`
	Insights []string `json:"insights,omitempty"`
	Rows     *int     `json:"total_rows,omitempty"`
}
