package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/munifin/munifin/internal/accounting/journals"
	"github.com/munifin/munifin/internal/accounting/vouchers"
	"github.com/munifin/munifin/internal/app"
	"github.com/munifin/munifin/internal/auth"
	"github.com/munifin/munifin/internal/budget"
	"github.com/munifin/munifin/internal/dashboard"
	"github.com/munifin/munifin/internal/hris"
	"github.com/munifin/munifin/internal/observability"
	"github.com/munifin/munifin/internal/planning"
	"github.com/munifin/munifin/internal/platform/cache"
	"github.com/munifin/munifin/internal/platform/db"
	"github.com/munifin/munifin/internal/roles"
	"github.com/munifin/munifin/internal/shared"
	"github.com/munifin/munifin/internal/treasury"
	"github.com/munifin/munifin/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "munifin_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	roleRepo := roles.NewRepository(pool)
	roleService := roles.NewService(roleRepo)
	rolesHandler := roles.NewHandler(logger, roleService)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, roleService, sessionManager)

	planningRepo := planning.NewRepository(pool)
	planningService := planning.NewService(planningRepo, logger)
	planningHandler := planning.NewHandler(logger, planningService)

	budgetRepo := budget.NewRepository(pool)
	budgetService := budget.NewService(budgetRepo, logger)
	budgetHandler := budget.NewHandler(logger, budgetService)

	journalRepo := journals.NewRepository(pool)
	journalService := journals.NewService(journalRepo, logger)
	journalsHandler := journals.NewHandler(logger, journalService)

	voucherRepo := vouchers.NewRepository(pool)
	voucherService := vouchers.NewService(voucherRepo, logger)
	vouchersHandler := vouchers.NewHandler(logger, voucherService)

	treasuryRepo := treasury.NewRepository(pool)
	treasuryService := treasury.NewService(treasuryRepo, logger)
	treasuryHandler := treasury.NewHandler(logger, treasuryService)

	hrisRepo := hris.NewRepository(pool)
	hrisService := hris.NewService(hrisRepo, logger)
	hrisHandler := hris.NewHandler(logger, hrisService)

	dashboardRepo := dashboard.NewRepository(pool)
	dashboardService := dashboard.NewService(dashboardRepo)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		Roles:            roleService,
		AuthHandler:      authHandler,
		RolesHandler:     rolesHandler,
		PlanningHandler:  planningHandler,
		BudgetHandler:    budgetHandler,
		JournalsHandler:  journalsHandler,
		VouchersHandler:  vouchersHandler,
		TreasuryHandler:  treasuryHandler,
		HRISHandler:      hrisHandler,
		DashboardHandler: dashboardHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
