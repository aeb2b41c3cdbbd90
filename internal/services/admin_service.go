package services

import (
	"context"
	"time"

	"github.com/growen-ao/growen-api/internal/config"
	"github.com/growen-ao/growen-api/internal/domain/admin"
	"github.com/growen-ao/growen-api/internal/domain/chat"
	"github.com/growen-ao/growen-api/internal/domain/crm"
	"github.com/growen-ao/growen-api/internal/domain/payment"
	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/domain/quota"
	"github.com/growen-ao/growen-api/internal/domain/report"
	"github.com/growen-ao/growen-api/internal/domain/user"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
)

const (
	defaultAnalyticsMonths = 6
	maxAnalyticsMonths     = 24
)

// AdminService implements admin.Service
type AdminService struct {
	users    user.Repository
	stats    admin.Stats
	payments payment.Repository
	clients  crm.Repository
	reports  report.Repository
	chats    chat.Repository
	catalog  *plan.Catalog
	cfg      *config.Config
	logger   *logger.Logger
	now      func() time.Time
}

// AdminDeps groups the stores the admin service reads
type AdminDeps struct {
	Users    user.Repository
	Stats    admin.Stats
	Payments payment.Repository
	Clients  crm.Repository
	Reports  report.Repository
	Chats    chat.Repository
}

// NewAdminService creates a new admin service
func NewAdminService(deps AdminDeps, catalog *plan.Catalog, cfg *config.Config, log *logger.Logger) admin.Service {
	return &AdminService{
		users:    deps.Users,
		stats:    deps.Stats,
		payments: deps.Payments,
		clients:  deps.Clients,
		reports:  deps.Reports,
		chats:    deps.Chats,
		catalog:  catalog,
		cfg:      cfg,
		logger:   log,
		now:      time.Now,
	}
}

// Overview returns platform totals and approved revenue
func (s *AdminService) Overview(ctx context.Context) (*admin.Overview, error) {
	now := s.now().UTC()
	active := true

	total, err := s.stats.CountUsers(ctx, user.Filter{})
	if err != nil {
		return nil, err
	}
	activeUsers, err := s.stats.CountUsers(ctx, user.Filter{IsActive: &active})
	if err != nil {
		return nil, err
	}
	// one second past now so a review stamped this instant is included
	until := now.Add(time.Second)
	revenue, err := s.payments.SumApprovedBetween(ctx, time.Unix(0, 0).UTC(), until)
	if err != nil {
		return nil, err
	}
	monthly, err := s.payments.SumApprovedBetween(ctx, quota.MonthStart(now), until)
	if err != nil {
		return nil, err
	}
	pending, err := s.payments.CountByStatus(ctx, payment.StatusPending)
	if err != nil {
		return nil, err
	}
	dist, err := s.stats.PlanDistribution(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range s.catalog.IDs() {
		if _, ok := dist[id]; !ok {
			dist[id] = 0
		}
	}

	return &admin.Overview{
		TotalUsers:       total,
		ActiveUsers:      activeUsers,
		TotalRevenue:     revenue,
		MonthlyRevenue:   monthly,
		PendingPayments:  pending,
		PlanDistribution: dist,
	}, nil
}

// Analytics returns per-month creation counts, oldest month first
func (s *AdminService) Analytics(ctx context.Context, months int) (*admin.Analytics, error) {
	if months <= 0 {
		months = defaultAnalyticsMonths
	}
	if months > maxAnalyticsMonths {
		months = maxAnalyticsMonths
	}

	current := quota.MonthStart(s.now())
	out := &admin.Analytics{Months: make([]admin.MonthlyCount, 0, months)}

	for i := months - 1; i >= 0; i-- {
		from := current.AddDate(0, -i, 0)
		to := from.AddDate(0, 1, 0)

		users, err := s.stats.CountUsersCreatedBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}
		clients, err := s.clients.CountCreatedBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}
		reports, err := s.reports.CountCreatedBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}
		chats, err := s.chats.CountCreatedBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}

		out.Months = append(out.Months, admin.MonthlyCount{
			Month:   from.Format("2006-01"),
			Users:   users,
			Clients: clients,
			Reports: reports,
			Chats:   chats,
		})
	}
	return out, nil
}

// ListUsers returns accounts matching filter
func (s *AdminService) ListUsers(ctx context.Context, filter user.Filter, limit, offset int) ([]*user.User, int64, error) {
	if filter.Plan != "" && !s.catalog.Has(filter.Plan) {
		return nil, 0, errors.BadRequest("Plano inválido")
	}
	users, total, err := s.users.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if users == nil {
		users = []*user.User{}
	}
	return users, total, nil
}

// UpdateUser changes activation, admin flag or plan. An administrator cannot
// revoke their own access.
func (s *AdminService) UpdateUser(ctx context.Context, actorID, id int64, upd user.AdminUpdate) (*user.User, error) {
	if upd.Plan != nil && !s.catalog.Has(*upd.Plan) {
		return nil, errors.BadRequest("Plano inválido")
	}
	if actorID == id && ((upd.IsActive != nil && !*upd.IsActive) || (upd.IsAdmin != nil && !*upd.IsAdmin)) {
		return nil, errors.BadRequest("Não pode remover o seu próprio acesso")
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	if upd.IsAdmin != nil {
		u.IsAdmin = *upd.IsAdmin
	}
	if upd.Plan != nil && *upd.Plan != u.Plan {
		u.Plan = *upd.Plan
		u.SubscriptionExpires = nil
		if p, _ := s.catalog.Get(u.Plan); p.Paid() {
			expires := s.now().UTC().AddDate(0, 0, s.cfg.Plans.SubscriptionDays)
			u.SubscriptionExpires = &expires
		}
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"actor_id": actorID,
		"user_id":  id,
		"plan":     u.Plan,
		"active":   u.IsActive,
		"admin":    u.IsAdmin,
	}).Info("User updated by admin")

	return u, nil
}

// DeleteUser removes an account and everything it owns
func (s *AdminService) DeleteUser(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return errors.BadRequest("Não pode eliminar a sua própria conta")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithFields(map[string]interface{}{
		"actor_id": actorID,
		"user_id":  id,
	}).Info("User deleted by admin")
	return nil
}

// Settings returns the effective configuration with secrets masked
func (s *AdminService) Settings() map[string]interface{} {
	c := s.cfg
	return map[string]interface{}{
		"environment": c.Server.Environment,
		"server": map[string]interface{}{
			"port":         c.Server.Port,
			"frontend_url": c.Server.FrontendURL,
		},
		"database": map[string]interface{}{
			"driver":   c.Database.Driver,
			"host":     c.Database.Host,
			"name":     c.Database.Name,
			"password": mask(c.Database.Password),
		},
		"auth": map[string]interface{}{
			"jwt_secret":          mask(c.Auth.JWTSecret),
			"token_expiry_hours":  c.Auth.AccessTokenExpiry.Hours(),
			"reset_token_minutes": c.Auth.ResetTokenExpiry.Minutes(),
		},
		"redis": map[string]interface{}{
			"enabled":  c.Redis.Enabled,
			"addr":     c.Redis.Addr(),
			"password": mask(c.Redis.Password),
		},
		"email": map[string]interface{}{
			"enabled":       c.Email.Enabled(),
			"smtp_host":     c.Email.SMTPHost,
			"smtp_port":     c.Email.SMTPPort,
			"smtp_user":     c.Email.SMTPUser,
			"smtp_password": mask(c.Email.SMTPPassword),
			"from":          c.Email.FromEmail,
		},
		"storage": map[string]interface{}{
			"driver":        c.Storage.Driver,
			"bucket":        c.Storage.Bucket,
			"s3_secret_key": mask(c.Storage.S3SecretKey),
			"gcs_creds":     mask(c.Storage.GCSCredentialsJSON),
		},
		"llm": map[string]interface{}{
			"provider":       c.LLM.Provider,
			"openai_model":   c.LLM.OpenAIModel,
			"openai_api_key": mask(c.LLM.OpenAIAPIKey),
			"gemini_model":   c.LLM.GeminiModel,
			"gemini_api_key": mask(c.LLM.GeminiAPIKey),
		},
		"bank":              s.bankView(),
		"whatsapp_number":   c.WhatsApp.Number,
		"subscription_days": c.Plans.SubscriptionDays,
		"plans":             s.catalog.IDs(),
	}
}

func (s *AdminService) bankView() map[string]interface{} {
	b := s.cfg.Bank
	return map[string]interface{}{
		"bank_name":      b.BankName,
		"account_holder": b.AccountHolder,
		"iban":           b.IBAN,
		"currency":       b.Currency,
	}
}

// mask reports only whether a secret is set
func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
