package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/growen-ao/growen-api/internal/auth"
	"github.com/growen-ao/growen-api/internal/config"
	"github.com/growen-ao/growen-api/internal/domain/chat"
	"github.com/growen-ao/growen-api/internal/domain/crm"
	"github.com/growen-ao/growen-api/internal/domain/email"
	"github.com/growen-ao/growen-api/internal/domain/invoice"
	"github.com/growen-ao/growen-api/internal/domain/payment"
	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/domain/quota"
	"github.com/growen-ao/growen-api/internal/domain/report"
	"github.com/growen-ao/growen-api/internal/domain/user"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/repository/postgres"
	"github.com/growen-ao/growen-api/internal/testutil"
)

const testPassword = "segredo123"

// testEnv wires the services over an in-memory database with fake mail,
// storage and AI backends
type testEnv struct {
	db         *sql.DB
	log        *logger.Logger
	catalog    *plan.Catalog
	users      user.Repository
	clients    crm.Repository
	chats      chat.Repository
	reports    report.Repository
	invoices   invoice.Repository
	payments   payment.Repository
	jobs       email.Repository
	gate       quota.Gate
	mailer     *testutil.MockMailer
	store      *testutil.MockStore
	consultant *testutil.MockConsultant
	emails     email.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.CleanupDB(db) })

	e := &testEnv{
		db:         db,
		log:        logger.New(logger.Config{Level: "error", Format: "json"}),
		catalog:    plan.DefaultCatalog(),
		users:      postgres.NewUserRepository(db),
		clients:    postgres.NewClientRepository(db),
		chats:      postgres.NewChatRepository(db),
		reports:    postgres.NewReportRepository(db),
		invoices:   postgres.NewInvoiceRepository(db),
		payments:   postgres.NewPaymentRepository(db),
		jobs:       postgres.NewEmailJobRepository(db),
		mailer:     &testutil.MockMailer{},
		store:      testutil.NewMockStore(),
		consultant: &testutil.MockConsultant{},
	}
	e.gate = NewQuotaService(e.catalog, postgres.NewUsageCounter(db), e.users, e.log)
	e.emails = NewEmailService(e.jobs, e.mailer, 3, e.log)
	return e
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:         "test-secret",
		AccessTokenExpiry: time.Hour,
		ResetTokenExpiry:  time.Hour,
		BCryptCost:        4,
	}
}

// seedUser creates an active account on planID
func (e *testEnv) seedUser(t *testing.T, addr, planID string) *user.User {
	t.Helper()
	ctx := context.Background()

	hash, err := auth.HashPassword(testPassword, 4)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &user.User{Email: addr, Name: "Utilizador Teste", PasswordHash: hash, IsActive: true}
	if err := e.users.Create(ctx, u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if planID != plan.Free {
		expires := time.Now().UTC().AddDate(0, 0, 30)
		if err := e.users.UpdatePlan(ctx, u.ID, planID, &expires); err != nil {
			t.Fatalf("seed plan: %v", err)
		}
		u.Plan = planID
		u.SubscriptionExpires = &expires
	}
	return u
}

// seedClients inserts n clients directly, bypassing the quota
func (e *testEnv) seedClients(t *testing.T, userID int64, n int, status crm.Status) []*crm.Client {
	t.Helper()
	out := make([]*crm.Client, 0, n)
	for i := 0; i < n; i++ {
		c := &crm.Client{UserID: userID, Name: "Cliente", Email: "cliente@example.ao", Status: status}
		if err := e.clients.Create(context.Background(), c); err != nil {
			t.Fatalf("seed client: %v", err)
		}
		out = append(out, c)
	}
	return out
}

func (e *testEnv) crm() crm.Service {
	return NewCRMService(e.clients, e.gate, e.emails, e.log)
}

func (e *testEnv) chat() chat.Service {
	return NewChatService(e.chats, e.gate, e.consultant, e.log)
}

func (e *testEnv) reportService() report.Service {
	return NewReportService(e.reports, e.clients, e.chats, e.invoices, e.gate, e.consultant, e.log)
}

func (e *testEnv) invoiceService() invoice.Service {
	return NewInvoiceService(e.invoices, e.clients, e.users, e.log)
}

func (e *testEnv) paymentService() payment.Service {
	bank := config.BankConfig{
		BankName:      "Banco BAI",
		AccountHolder: "Growen Lda",
		AccountNumber: "123456789",
		IBAN:          "AO06 0040 0000 1234 5678 9012 3",
		Currency:      "AOA",
	}
	return NewPaymentService(e.payments, e.users, e.catalog, e.store, e.emails, bank, 30, e.log)
}

func (e *testEnv) userService() user.Service {
	return NewUserService(e.users, e.emails, testAuthConfig(), "https://app.growen.ao/", e.log)
}

// jobsOfKind returns every stored email job of kind for the user
func (e *testEnv) jobsOfKind(t *testing.T, userID int64, kind email.Kind) int {
	t.Helper()
	var n int
	err := e.db.QueryRow(`SELECT COUNT(*) FROM email_jobs WHERE user_id = $1 AND kind = $2`, userID, string(kind)).Scan(&n)
	if err != nil {
		t.Fatalf("count email jobs: %v", err)
	}
	return n
}
