package dashboard

import (
	"context"

	"github.com/growen-ao/growen-api/internal/domain/quota"
)

// KPIs are the headline figures on a user's dashboard
type KPIs struct {
	TotalClients       int                    `json:"total_clients"`
	ActiveClients      int                    `json:"active_clients"`
	TotalReports       int                    `json:"total_reports"`
	TotalConsultations int                    `json:"total_consultations"`
	MonthlyRevenue     float64                `json:"monthly_revenue"`
	ConversionRate     float64                `json:"conversion_rate"`
	Usage              map[string]quota.Usage `json:"usage"`
}

// Service computes dashboard figures
type Service interface {
	KPIs(ctx context.Context, userID int64) (*KPIs, error)
}
