package integration

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/growen-ao/growen-api/internal/api/handlers"
	"github.com/growen-ao/growen-api/internal/api/router"
	"github.com/growen-ao/growen-api/internal/auth"
	"github.com/growen-ao/growen-api/internal/config"
	"github.com/growen-ao/growen-api/internal/domain/email"
	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/domain/user"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/validator"
	"github.com/growen-ao/growen-api/internal/repository/postgres"
	"github.com/growen-ao/growen-api/internal/services"
	"github.com/growen-ao/growen-api/internal/testutil"
	"github.com/growen-ao/growen-api/pkg/client"
)

const (
	adminEmail    = "admin@growen.ao"
	adminPassword = "admin-segredo"
)

// stack is a running API server over an in-memory database
type stack struct {
	server *httptest.Server
	users  user.Repository
	mailer *testutil.MockMailer
	store  *testutil.MockStore
	emails email.Service
}

func setupStack(t *testing.T) *stack {
	t.Helper()

	db := testutil.NewTestDB(t)
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	val := validator.New()

	cfg := &config.Config{
		Server: config.ServerConfig{
			FrontendURL:    "http://localhost:3000",
			Environment:    "test",
			RateLimitRPS:   1000,
			RateLimitBurst: 1000,
		},
		Auth: config.AuthConfig{
			JWTSecret:         "test-secret-key-for-testing-only",
			BCryptCost:        4, // Low cost for fast tests
			AccessTokenExpiry: 15 * time.Minute,
			ResetTokenExpiry:  time.Hour,
		},
		Bank:  config.BankConfig{BankName: "Banco BAI", AccountHolder: "Growen Lda", IBAN: "AO06 0040 0000 1234 5678 9012 3", Currency: "AOA"},
		Plans: config.PlansConfig{SubscriptionDays: 30},
	}
	catalog := plan.DefaultCatalog()

	userRepo := postgres.NewUserRepository(db)
	clientRepo := postgres.NewClientRepository(db)
	chatRepo := postgres.NewChatRepository(db)
	reportRepo := postgres.NewReportRepository(db)
	invoiceRepo := postgres.NewInvoiceRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)

	mailer := &testutil.MockMailer{}
	store := testutil.NewMockStore()
	consultant := &testutil.MockConsultant{Reply: "Resposta de teste"}
	emails := services.NewEmailService(postgres.NewEmailJobRepository(db), mailer, 3, log)
	gate := services.NewQuotaService(catalog, postgres.NewUsageCounter(db), userRepo, log)
	userService := services.NewUserService(userRepo, emails, cfg.Auth, cfg.Server.FrontendURL, log)
	payments := services.NewPaymentService(paymentRepo, userRepo, catalog, store, emails, cfg.Bank, cfg.Plans.SubscriptionDays, log)
	denylist := auth.NewMemoryDenylist()

	h := &router.Handlers{
		Health:  handlers.NewHealthHandler(db, "integration", log),
		Auth:    handlers.NewAuthHandler(userService, denylist, cfg, log, val),
		Plan:    handlers.NewPlanHandler(catalog, userService, gate, payments, log, val),
		CRM:     handlers.NewCRMHandler(services.NewCRMService(clientRepo, gate, emails, log), emails, log, val),
		Chat:    handlers.NewChatHandler(services.NewChatService(chatRepo, gate, consultant, log), log, val),
		Report:  handlers.NewReportHandler(services.NewReportService(reportRepo, clientRepo, chatRepo, invoiceRepo, gate, consultant, log), log, val),
		Invoice: handlers.NewInvoiceHandler(services.NewInvoiceService(invoiceRepo, clientRepo, userRepo, log), log, val),
		Payment: handlers.NewPaymentHandler(payments, log),
		Admin: handlers.NewAdminHandler(services.NewAdminService(services.AdminDeps{
			Users:    userRepo,
			Stats:    postgres.NewUserStats(db),
			Payments: paymentRepo,
			Clients:  clientRepo,
			Reports:  reportRepo,
			Chats:    chatRepo,
		}, catalog, cfg, log), payments, log, val),
		Dashboard: handlers.NewDashboardHandler(services.NewDashboardService(clientRepo, reportRepo, chatRepo, invoiceRepo, gate), cfg.WhatsApp, log),
	}

	hash, err := auth.HashPassword(adminPassword, 4)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	admin := &user.User{Email: adminEmail, Name: "Administrador", PasswordHash: hash, IsAdmin: true, IsActive: true}
	if err := userRepo.Create(context.Background(), admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	srv := httptest.NewServer(router.New(cfg, log, h, router.Deps{Denylist: denylist, Users: userRepo}))
	t.Cleanup(func() {
		srv.Close()
		testutil.CleanupDB(db)
	})

	return &stack{
		server: srv,
		users:  userRepo,
		mailer: mailer,
		store:  store,
		emails: emails,
	}
}

func (s *stack) client() *client.Client {
	return client.NewClient(client.Config{BaseURL: s.server.URL, Timeout: 5 * time.Second})
}
