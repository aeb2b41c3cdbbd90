package services

import (
	"context"
	"time"

	"github.com/growen-ao/growen-api/internal/domain/chat"
	"github.com/growen-ao/growen-api/internal/domain/crm"
	"github.com/growen-ao/growen-api/internal/domain/dashboard"
	"github.com/growen-ao/growen-api/internal/domain/invoice"
	"github.com/growen-ao/growen-api/internal/domain/quota"
	"github.com/growen-ao/growen-api/internal/domain/report"
)

// DashboardService implements dashboard.Service
type DashboardService struct {
	clients  crm.Repository
	reports  report.Repository
	chats    chat.Repository
	invoices invoice.Repository
	quota    quota.Gate
	now      func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(clients crm.Repository, reports report.Repository, chats chat.Repository,
	invoices invoice.Repository, gate quota.Gate) dashboard.Service {
	return &DashboardService{
		clients:  clients,
		reports:  reports,
		chats:    chats,
		invoices: invoices,
		quota:    gate,
		now:      time.Now,
	}
}

// KPIs returns totals, this month's paid revenue and plan usage
func (s *DashboardService) KPIs(ctx context.Context, userID int64) (*dashboard.KPIs, error) {
	total, err := s.clients.Count(ctx, userID)
	if err != nil {
		return nil, err
	}
	active, err := s.clients.CountByStatus(ctx, userID, crm.StatusActive)
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.Count(ctx, userID)
	if err != nil {
		return nil, err
	}
	chats, err := s.chats.CountSince(ctx, userID, time.Time{})
	if err != nil {
		return nil, err
	}
	revenue, err := s.invoices.SumPaidSince(ctx, userID, quota.MonthStart(s.now()))
	if err != nil {
		return nil, err
	}
	snapshot, err := s.quota.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	usage := make(map[string]quota.Usage, len(snapshot))
	for f, u := range snapshot {
		usage[f.String()] = u
	}

	return &dashboard.KPIs{
		TotalClients:       total,
		ActiveClients:      active,
		TotalReports:       reports,
		TotalConsultations: chats,
		MonthlyRevenue:     revenue,
		ConversionRate:     conversionRate(active, total),
		Usage:              usage,
	}, nil
}
