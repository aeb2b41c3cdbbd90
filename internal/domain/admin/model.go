package admin

import (
	"context"
	"time"

	"github.com/growen-ao/growen-api/internal/domain/user"
)

// Overview summarises the platform for the admin dashboard
type Overview struct {
	TotalUsers       int            `json:"total_users"`
	ActiveUsers      int            `json:"active_users"`
	TotalRevenue     int64          `json:"total_revenue"`
	MonthlyRevenue   int64          `json:"monthly_revenue"`
	PendingPayments  int            `json:"pending_payments"`
	PlanDistribution map[string]int `json:"plan_distribution"`
}

// MonthlyCount is one bucket of the analytics series
type MonthlyCount struct {
	Month   string `json:"month"`
	Users   int    `json:"users"`
	Clients int    `json:"clients"`
	Reports int    `json:"reports"`
	Chats   int    `json:"chats"`
}

// Analytics covers the trailing months, oldest first
type Analytics struct {
	Months []MonthlyCount `json:"months"`
}

// Stats reads platform-wide aggregates
type Stats interface {
	CountUsers(ctx context.Context, filter user.Filter) (int, error)
	PlanDistribution(ctx context.Context) (map[string]int, error)
	CountUsersCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
}

// Service defines administrator operations
type Service interface {
	Overview(ctx context.Context) (*Overview, error)
	Analytics(ctx context.Context, months int) (*Analytics, error)
	// ListUsers returns matching accounts newest first and the total match
	// count; limit <= 0 returns all
	ListUsers(ctx context.Context, filter user.Filter, limit, offset int) ([]*user.User, int64, error)
	UpdateUser(ctx context.Context, actorID, id int64, upd user.AdminUpdate) (*user.User, error)
	DeleteUser(ctx context.Context, actorID, id int64) error
	Settings() map[string]interface{}
}
