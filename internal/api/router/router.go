package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/growen-ao/growen-api/docs"
	"github.com/growen-ao/growen-api/internal/api/handlers"
	"github.com/growen-ao/growen-api/internal/api/middleware"
	"github.com/growen-ao/growen-api/internal/auth"
	"github.com/growen-ao/growen-api/internal/config"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/metrics"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	Plan      *handlers.PlanHandler
	CRM       *handlers.CRMHandler
	Chat      *handlers.ChatHandler
	Report    *handlers.ReportHandler
	Invoice   *handlers.InvoiceHandler
	Payment   *handlers.PaymentHandler
	Admin     *handlers.AdminHandler
	Dashboard *handlers.DashboardHandler
}

// Deps are the cross-cutting collaborators of the middleware chain
type Deps struct {
	Denylist auth.Denylist
	Users    middleware.UserLookup
	Limiter  middleware.Limiter
}

// New builds the HTTP handler. Every API route lives under /api.
func New(cfg *config.Config, log *logger.Logger, h *Handlers, deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(metrics.Middleware)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.SecurityHeaders(cfg.Server.Environment == "production"))
	r.Use(middleware.FrontendCORS(cfg.Server.FrontendURL, cfg.Server.CORSOrigins))

	limiter := deps.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	}

	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/health", h.Health.Healthz)
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health.Healthz)

		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(limiter))

			r.Post("/auth/register", h.Auth.Register)
			r.Post("/auth/login", h.Auth.Login)
			r.Post("/auth/forgot-password", h.Auth.ForgotPassword)
			r.Get("/auth/verify-reset-token/{token}", h.Auth.VerifyResetToken)
			r.Post("/auth/reset-password", h.Auth.ResetPassword)

			r.Get("/plans/available", h.Plan.Available)
			r.Get("/payments/bank-details", h.Payment.BankDetails)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret, deps.Denylist))
			r.Use(middleware.RateLimit(limiter))

			r.Post("/auth/logout", h.Auth.Logout)
			r.Get("/auth/me", h.Auth.Me)
			r.Put("/auth/profile", h.Auth.UpdateProfile)
			r.Post("/auth/change-password", h.Auth.ChangePassword)

			r.Get("/plans/current", h.Plan.Current)
			r.Post("/plans/upgrade", h.Plan.Upgrade)

			r.Route("/crm/clients", func(r chi.Router) {
				r.Get("/", h.CRM.List)
				r.Post("/", h.CRM.Create)
				r.Get("/{id}", h.CRM.Get)
				r.Put("/{id}", h.CRM.Update)
				r.Delete("/{id}", h.CRM.Delete)
				r.Post("/{id}/communications", h.CRM.AddCommunication)
				r.Post("/{id}/send-email", h.CRM.SendEmail)
				r.Get("/{id}/call-link", h.CRM.CallLinks)
			})
			r.Get("/email-templates", h.CRM.Templates)
			r.Get("/email-jobs/{id}", h.CRM.EmailJob)

			r.Post("/chat", h.Chat.Send)
			r.Get("/chat/history", h.Chat.History)
			r.Get("/chat/sessions", h.Chat.Sessions)
			r.Post("/chat/{session_id}/export-pdf", h.Chat.ExportPDF)

			r.Route("/reports", func(r chi.Router) {
				r.Get("/", h.Report.List)
				r.Post("/generate", h.Report.Generate)
				r.Post("/generate-custom", h.Report.GenerateCustom)
				r.Post("/upload-csv", h.Report.UploadCSV)
				r.Get("/{id}", h.Report.Get)
				r.Get("/{id}/pdf", h.Report.PDF)
			})

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", h.Invoice.List)
				r.Post("/generate", h.Invoice.Generate)
				r.Post("/auto-generate", h.Invoice.AutoGenerate)
				r.Put("/{id}/status", h.Invoice.UpdateStatus)
				r.Get("/{id}/pdf", h.Invoice.PDF)
			})

			r.Post("/payments/upload-proof", h.Payment.UploadProof)
			r.Get("/payments/status", h.Payment.Status)

			r.Get("/dashboard/kpis", h.Dashboard.KPIs)
			r.Get("/whatsapp/consultation-config", h.Dashboard.WhatsAppConfig)

			// Admin routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(deps.Users))

				r.Get("/payments/pending", h.Admin.PendingPayments)
				r.Get("/payments/all", h.Admin.AllPayments)
				r.Post("/payments/{id}/review", h.Admin.Review)
				r.Post("/payments/{id}/approve", h.Admin.Approve)
				r.Post("/payments/{id}/reject", h.Admin.Reject)
				r.Get("/payments/{id}/proof", h.Admin.Proof)

				r.Get("/dashboard/overview", h.Admin.Overview)
				r.Get("/users/all", h.Admin.Users)
				r.Put("/users/{id}", h.Admin.UpdateUser)
				r.Delete("/users/{id}", h.Admin.DeleteUser)
				r.Get("/system/settings", h.Admin.Settings)
				r.Get("/reports/analytics", h.Admin.Analytics)
			})
		})
	})

	return r
}
