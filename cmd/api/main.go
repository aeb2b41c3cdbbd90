package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/growen-ao/growen-api/internal/api/handlers"
	"github.com/growen-ao/growen-api/internal/api/middleware"
	"github.com/growen-ao/growen-api/internal/api/router"
	"github.com/growen-ao/growen-api/internal/auth"
	"github.com/growen-ao/growen-api/internal/config"
	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/integrations"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/validator"
	"github.com/growen-ao/growen-api/internal/providers"
	"github.com/growen-ao/growen-api/internal/repository/postgres"
	"github.com/growen-ao/growen-api/internal/services"
	"github.com/growen-ao/growen-api/internal/storage"
	"github.com/growen-ao/growen-api/internal/worker"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// @title Growen API
// @version 1.0
// @description Consultoria empresarial, CRM e faturação para PMEs angolanas.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})

	if err := run(cfg, log); err != nil {
		log.ErrorWithErr(err, "Server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := postgres.Migrate(ctx, db, cfg.Database.Driver)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.WithFields(map[string]interface{}{
		"driver":  cfg.Database.Driver,
		"applied": len(applied),
	}).Info("Database ready")

	catalog := plan.DefaultCatalog()
	if cfg.Plans.CatalogPath != "" {
		catalog, err = plan.LoadCatalog(cfg.Plans.CatalogPath)
		if err != nil {
			return fmt.Errorf("load plan catalog: %w", err)
		}
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open proof storage: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	var (
		denylist auth.Denylist
		limiter  middleware.Limiter
		rdb      *redis.Client
	)
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		denylist = auth.NewRedisDenylist(rdb)
		limiter = middleware.NewRedisRateLimiter(rdb, cfg.Server.RateLimitBurst, time.Second, "growen:ratelimit")
		log.WithFields(map[string]interface{}{"addr": cfg.Redis.Addr()}).Info("Using Redis for sessions and rate limits")
	} else {
		denylist = auth.NewMemoryDenylist()
		local := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
		go local.StartCleanup(ctx, 5*time.Minute)
		limiter = local
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	clientRepo := postgres.NewClientRepository(db)
	chatRepo := postgres.NewChatRepository(db)
	reportRepo := postgres.NewReportRepository(db)
	invoiceRepo := postgres.NewInvoiceRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	emailRepo := postgres.NewEmailJobRepository(db)

	// Services
	consultant := providers.NewConsultant(cfg.LLM)
	mailer := integrations.NewMailer(cfg.Email, log)
	emailService := services.NewEmailService(emailRepo, mailer, cfg.Email.MaxAttempts, log)
	gate := services.NewQuotaService(catalog, postgres.NewUsageCounter(db), userRepo, log)
	userService := services.NewUserService(userRepo, emailService, cfg.Auth, cfg.Server.FrontendURL, log)
	crmService := services.NewCRMService(clientRepo, gate, emailService, log)
	chatService := services.NewChatService(chatRepo, gate, consultant, log)
	reportService := services.NewReportService(reportRepo, clientRepo, chatRepo, invoiceRepo, gate, consultant, log)
	invoiceService := services.NewInvoiceService(invoiceRepo, clientRepo, userRepo, log)
	paymentService := services.NewPaymentService(paymentRepo, userRepo, catalog, store, emailService,
		cfg.Bank, cfg.Plans.SubscriptionDays, log)
	dashboardService := services.NewDashboardService(clientRepo, reportRepo, chatRepo, invoiceRepo, gate)
	adminService := services.NewAdminService(services.AdminDeps{
		Users:    userRepo,
		Stats:    postgres.NewUserStats(db),
		Payments: paymentRepo,
		Clients:  clientRepo,
		Reports:  reportRepo,
		Chats:    chatRepo,
	}, catalog, cfg, log)
	subscriptions := services.NewSubscriptionService(userRepo, emailService, log)

	log.WithFields(map[string]interface{}{
		"llm":     consultant.Name(),
		"storage": store.Name(),
		"smtp":    cfg.Email.Enabled(),
		"plans":   catalog.IDs(),
	}).Info("Services initialized")

	// Workers
	dispatcher := worker.NewEmailDispatcher(emailService, cfg.Workers.EmailDispatchInterval, cfg.Workers.EmailBatchSize, log)
	sweeper, err := worker.NewSubscriptionSweeper(subscriptions, cfg.Workers.SubscriptionSweep, log)
	if err != nil {
		return err
	}
	go dispatcher.Start(ctx)
	go func() {
		if err := sweeper.Start(ctx); err != nil {
			log.ErrorWithErr(err, "Subscription sweeper failed")
		}
	}()

	// HTTP
	val := validator.New()
	h := &router.Handlers{
		Health:    handlers.NewHealthHandler(db, version, log).WithRedis(rdb),
		Auth:      handlers.NewAuthHandler(userService, denylist, cfg, log, val),
		Plan:      handlers.NewPlanHandler(catalog, userService, gate, paymentService, log, val),
		CRM:       handlers.NewCRMHandler(crmService, emailService, log, val),
		Chat:      handlers.NewChatHandler(chatService, log, val),
		Report:    handlers.NewReportHandler(reportService, log, val),
		Invoice:   handlers.NewInvoiceHandler(invoiceService, log, val),
		Payment:   handlers.NewPaymentHandler(paymentService, log),
		Admin:     handlers.NewAdminHandler(adminService, paymentService, log, val),
		Dashboard: handlers.NewDashboardHandler(dashboardService, cfg.WhatsApp, log),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, h, router.Deps{Denylist: denylist, Users: userRepo, Limiter: limiter}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"addr":        srv.Addr,
			"environment": cfg.Server.Environment,
			"version":     version,
		}).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
