package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growen-ao/growen-api/internal/api/handlers"
	"github.com/growen-ao/growen-api/internal/auth"
	"github.com/growen-ao/growen-api/internal/config"
	"github.com/growen-ao/growen-api/internal/domain/crm"
	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/domain/user"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/validator"
	"github.com/growen-ao/growen-api/internal/repository/postgres"
	"github.com/growen-ao/growen-api/internal/services"
	"github.com/growen-ao/growen-api/internal/testutil"
)

var pngProof = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type testServer struct {
	t       *testing.T
	handler http.Handler
	cfg     *config.Config
	users   user.Repository
	clients crm.Repository
	mailer  *testutil.MockMailer
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, error) { return false, nil }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			FrontendURL:    "http://localhost:3000",
			Environment:    "test",
			RateLimitRPS:   1000,
			RateLimitBurst: 1000,
		},
		Auth: config.AuthConfig{
			JWTSecret:         "router-test-secret",
			AccessTokenExpiry: time.Hour,
			ResetTokenExpiry:  time.Hour,
			BCryptCost:        4,
		},
		Bank: config.BankConfig{
			BankName:      "Banco BAI",
			AccountHolder: "Growen Lda",
			AccountNumber: "123456789",
			IBAN:          "AO06 0040 0000 1234 5678 9012 3",
			Currency:      "AOA",
		},
		WhatsApp: config.WhatsAppConfig{Number: "+244 943 201 590", Message: "Olá"},
		Plans:    config.PlansConfig{SubscriptionDays: 30},
	}
}

func newTestServer(t *testing.T, deps Deps) *testServer {
	t.Helper()

	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.CleanupDB(db) })

	cfg := testConfig()
	log := logger.Nop()
	catalog := plan.DefaultCatalog()

	userRepo := postgres.NewUserRepository(db)
	clientRepo := postgres.NewClientRepository(db)
	chatRepo := postgres.NewChatRepository(db)
	reportRepo := postgres.NewReportRepository(db)
	invoiceRepo := postgres.NewInvoiceRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)

	mailer := &testutil.MockMailer{}
	consultant := &testutil.MockConsultant{Reply: "Aumente a margem reduzindo custos fixos."}
	emails := services.NewEmailService(postgres.NewEmailJobRepository(db), mailer, 3, log)
	gate := services.NewQuotaService(catalog, postgres.NewUsageCounter(db), userRepo, log)
	userService := services.NewUserService(userRepo, emails, cfg.Auth, cfg.Server.FrontendURL, log)
	payments := services.NewPaymentService(paymentRepo, userRepo, catalog, testutil.NewMockStore(), emails,
		cfg.Bank, cfg.Plans.SubscriptionDays, log)
	adminService := services.NewAdminService(services.AdminDeps{
		Users:    userRepo,
		Stats:    postgres.NewUserStats(db),
		Payments: paymentRepo,
		Clients:  clientRepo,
		Reports:  reportRepo,
		Chats:    chatRepo,
	}, catalog, cfg, log)

	if deps.Denylist == nil {
		deps.Denylist = auth.NewMemoryDenylist()
	}
	deps.Users = userRepo

	val := validator.New()
	h := &Handlers{
		Health:    handlers.NewHealthHandler(db, "test", log),
		Auth:      handlers.NewAuthHandler(userService, deps.Denylist, cfg, log, val),
		Plan:      handlers.NewPlanHandler(catalog, userService, gate, payments, log, val),
		CRM:       handlers.NewCRMHandler(services.NewCRMService(clientRepo, gate, emails, log), emails, log, val),
		Chat:      handlers.NewChatHandler(services.NewChatService(chatRepo, gate, consultant, log), log, val),
		Report:    handlers.NewReportHandler(services.NewReportService(reportRepo, clientRepo, chatRepo, invoiceRepo, gate, consultant, log), log, val),
		Invoice:   handlers.NewInvoiceHandler(services.NewInvoiceService(invoiceRepo, clientRepo, userRepo, log), log, val),
		Payment:   handlers.NewPaymentHandler(payments, log),
		Admin:     handlers.NewAdminHandler(adminService, payments, log, val),
		Dashboard: handlers.NewDashboardHandler(services.NewDashboardService(clientRepo, reportRepo, chatRepo, invoiceRepo, gate), cfg.WhatsApp, log),
	}

	return &testServer{
		t:       t,
		handler: New(cfg, log, h, deps),
		cfg:     cfg,
		users:   userRepo,
		clients: clientRepo,
		mailer:  mailer,
	}
}

// do sends a JSON request and returns the recorder
func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(s.t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) seedUser(addr string, admin bool) (*user.User, string) {
	s.t.Helper()
	hash, err := auth.HashPassword("segredo123", 4)
	require.NoError(s.t, err)
	u := &user.User{Email: addr, Name: "Teste", PasswordHash: hash, IsActive: true, IsAdmin: admin}
	require.NoError(s.t, s.users.Create(context.Background(), u))
	tok, err := auth.MintToken(u.ID, u.Email, s.cfg.Auth.JWTSecret, time.Hour)
	require.NoError(s.t, err)
	return u, tok.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestHealthRoutes(t *testing.T) {
	s := newTestServer(t, Deps{})

	for _, path := range []string{"/health", "/healthz", "/api/health", "/readyz", "/metrics"} {
		rec := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	rec := s.do(http.MethodGet, "/api/health", "", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, Deps{})

	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "Ana@Example.ao",
		"name":     "Ana Silva",
		"password": "segredo123",
		"company":  "Kitanda Lda",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reg struct {
		Token string     `json:"token"`
		User  *user.User `json:"user"`
	}
	decode(t, rec, &reg)
	require.NotEmpty(t, reg.Token)
	assert.Equal(t, "ana@example.ao", reg.User.Email)
	assert.Equal(t, plan.Free, reg.User.Plan)
	assert.NotEmpty(t, rec.Header().Get("Set-Cookie"))

	rec = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "ana@example.ao", "name": "Outra Ana", "password": "segredo123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.ao", "password": "errada1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.ao", "password": "segredo123"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
	}
	decode(t, rec, &login)

	rec = s.do(http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(http.MethodPost, "/api/auth/logout", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/auth/me", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sessão terminada")

	// the registration token was not revoked
	rec = s.do(http.MethodGet, "/api/auth/me", reg.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStrictDecoding(t *testing.T) {
	s := newTestServer(t, Deps{})
	_, tok := s.seedUser("strict@example.ao", false)

	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "unknown field on register", path: "/api/auth/register",
			body: `{"email":"x@example.ao","name":"Xavier","password":"segredo123","is_admin":true}`},
		{name: "trailing data", path: "/api/auth/login", body: `{"email":"x@example.ao","password":"a"}{}`},
		{name: "malformed json", path: "/api/crm/clients", body: `{"name":`},
		{name: "wrong type", path: "/api/crm/clients", body: `{"name":"Loja","email":"loja@example.ao","value":"muito"}`},
		{name: "unknown field on client", path: "/api/crm/clients", body: `{"name":"Loja","email":"loja@example.ao","owner_id":9}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, tt.path, tok, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	rec := s.do(http.MethodPost, "/api/crm/clients", tok, `{"name":"Loja","email":"nao-e-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestClientQuota(t *testing.T) {
	s := newTestServer(t, Deps{})
	u, tok := s.seedUser("quota@example.ao", false)

	limit, err := plan.DefaultCatalog().Limit(plan.Free, plan.FeatureClients)
	require.NoError(t, err)
	for i := 0; i < limit; i++ {
		c := &crm.Client{UserID: u.ID, Name: fmt.Sprintf("Cliente %d", i), Email: "c@example.ao", Status: crm.StatusLead}
		require.NoError(t, s.clients.Create(context.Background(), c))
	}

	rec := s.do(http.MethodPost, "/api/crm/clients", tok, map[string]string{"name": "Mais um", "email": "mais@example.ao"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	var body struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "QUOTA_EXCEEDED", body.Code)
	assert.Contains(t, body.Detail, "clients")

	rec = s.do(http.MethodGet, "/api/plans/current", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), fmt.Sprintf(`"used":%d`, limit))
}

func uploadProof(t *testing.T, s *testServer, token, planID string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "comprovativo.png")
	require.NoError(t, err)
	_, err = fw.Write(pngProof)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("plan_id", planID))
	require.NoError(t, mw.WriteField("reference_number", "TRF-2024-001"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/payments/upload-proof", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestPaymentReviewFlow(t *testing.T) {
	s := newTestServer(t, Deps{})
	payer, payerTok := s.seedUser("payer@example.ao", false)
	_, adminTok := s.seedUser("admin@growen.ao", true)

	rec := uploadProof(t, s, payerTok, plan.Starter)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var submitted struct {
		PaymentID string `json:"payment_id"`
		Status    string `json:"status"`
	}
	decode(t, rec, &submitted)
	assert.Equal(t, "pending", submitted.Status)

	// plan unchanged until review
	u, err := s.users.GetByID(context.Background(), payer.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Free, u.Plan)

	rec = s.do(http.MethodGet, "/api/admin/payments/pending", payerTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/admin/payments/pending", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), submitted.PaymentID)

	rec = s.do(http.MethodGet, "/api/admin/payments/"+submitted.PaymentID+"/proof", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngProof, rec.Body.Bytes())

	path := "/api/admin/payments/" + submitted.PaymentID + "/approve"
	rec = s.do(http.MethodPost, path, adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	u, err = s.users.GetByID(context.Background(), payer.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Starter, u.Plan)
	require.NotNil(t, u.SubscriptionExpires)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *u.SubscriptionExpires, time.Minute)

	rec = s.do(http.MethodPost, path, adminTok, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/admin/payments/"+submitted.PaymentID+"/review", adminTok,
		map[string]string{"status": "rejected"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/admin/payments/"+submitted.PaymentID+"/review", adminTok,
		map[string]string{"status": "maybe"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/payments/status", payerTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"approved"`)
}

func TestDeactivatedAdminLosesAccess(t *testing.T) {
	s := newTestServer(t, Deps{})
	admin, tok := s.seedUser("old-admin@growen.ao", true)

	active := false
	_, err := services.NewAdminService(services.AdminDeps{Users: s.users}, plan.DefaultCatalog(), s.cfg, logger.Nop()).
		UpdateUser(context.Background(), 0, admin.ID, user.AdminUpdate{IsActive: &active})
	require.NoError(t, err)

	rec := s.do(http.MethodGet, "/api/admin/users/all", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatAndExport(t *testing.T) {
	s := newTestServer(t, Deps{})
	_, tok := s.seedUser("chat@example.ao", false)

	rec := s.do(http.MethodPost, "/api/chat", tok, map[string]string{"message": "Como aumentar as vendas?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reply struct {
		Response  string `json:"response"`
		SessionID string `json:"session_id"`
	}
	decode(t, rec, &reply)
	require.NotEmpty(t, reply.SessionID)
	assert.Equal(t, "Aumente a margem reduzindo custos fixos.", reply.Response)

	rec = s.do(http.MethodPost, "/api/chat/"+reply.SessionID+"/export-pdf", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	_, otherTok := s.seedUser("other@example.ao", false)
	rec = s.do(http.MethodPost, "/api/chat/"+reply.SessionID+"/export-pdf", otherTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClientEmailJobStatus(t *testing.T) {
	s := newTestServer(t, Deps{})
	_, tok := s.seedUser("crm@example.ao", false)

	rec := s.do(http.MethodPost, "/api/crm/clients", tok, map[string]string{
		"name": "Padaria Central", "email": "padaria@example.ao", "phone": "+244923456789",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var client crm.Client
	decode(t, rec, &client)
	assert.Equal(t, crm.StatusLead, client.Status)

	rec = s.do(http.MethodPost, "/api/crm/clients/"+client.ID+"/send-email", tok, map[string]string{
		"subject": "Proposta", "content": "Segue a nossa proposta.",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sent struct {
		Status string `json:"status"`
		JobID  string `json:"job_id"`
	}
	decode(t, rec, &sent)
	assert.Equal(t, "sent", sent.Status)
	assert.Equal(t, 1, s.mailer.Count())

	rec = s.do(http.MethodGet, "/api/email-jobs/"+sent.JobID, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"sent"`)

	_, otherTok := s.seedUser("intruso@example.ao", false)
	rec = s.do(http.MethodGet, "/api/email-jobs/"+sent.JobID, otherTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodGet, "/api/crm/clients/"+client.ID, otherTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, Deps{})

	for _, path := range []string{"/api/auth/me", "/api/crm/clients", "/api/dashboard/kpis", "/api/admin/users/all"} {
		rec := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := s.do(http.MethodGet, "/api/plans/available", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var plans map[string]json.RawMessage
	decode(t, rec, &plans)
	assert.Len(t, plans, 3)
}

func TestRateLimited(t *testing.T) {
	s := newTestServer(t, Deps{Limiter: denyAll{}})

	rec := s.do(http.MethodGet, "/api/plans/available", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// probes are not limited
	rec = s.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
