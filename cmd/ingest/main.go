package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fullstackverse/form-gateway/internal/adapter/api"
	"github.com/fullstackverse/form-gateway/internal/adapter/api/middleware"
	"github.com/fullstackverse/form-gateway/internal/adapter/form"
	"github.com/fullstackverse/form-gateway/internal/adapter/metrics"
	"github.com/fullstackverse/form-gateway/internal/adapter/notifier"
	"github.com/fullstackverse/form-gateway/internal/adapter/ratelimit"
	"github.com/fullstackverse/form-gateway/internal/adapter/repository/postgres"
	redisrepo "github.com/fullstackverse/form-gateway/internal/adapter/repository/redis"
	"github.com/fullstackverse/form-gateway/internal/adapter/repository/sheet"
	"github.com/fullstackverse/form-gateway/internal/domain"
	"github.com/fullstackverse/form-gateway/internal/pkg/config"
	"github.com/fullstackverse/form-gateway/internal/pkg/logger"
	"github.com/fullstackverse/form-gateway/internal/usecase"

	_ "github.com/lib/pq" // Keep for postgres driver
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.NewGatewayMetrics()

	// --- Start Admin and Metrics Server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())

	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminMux,
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Redis Connection ---
	// The rate limiter fails open, so an unreachable Redis degrades to
	// unlimited submissions rather than blocking startup.
	redisClient, err := redisrepo.NewClient(ctx, cfg.RedisAddr)
	if redisClient == nil {
		logger.Error("invalid redis address", "error", err)
		os.Exit(1)
	}
	if err != nil {
		logger.Warn("could not connect to redis, rate limiting is disabled", "error", err)
	}
	kvStore := redisrepo.NewKVStore(redisClient)
	locker := redisrepo.NewLocker(redisClient, logger)

	// --- Submission Store ---
	var store domain.SubmissionStore
	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = postgres.NewSubmissionStore(db, logger, cfg.StoreLockWait)
		logger.Info("using postgres submission store")
	} else {
		store = sheet.NewStore(cfg.SheetPath, logger, cfg.StoreLockWait)
		logger.Info("using csv sheet submission store", "path", cfg.SheetPath)
	}

	// --- Alerts ---
	var alerts notifier.Notifier
	if cfg.AlertEmail != "" {
		alerts = notifier.NewStdoutNotifier()
	} else {
		alerts = notifier.NewLogNotifier(logger)
	}

	// --- Initialize Use Cases and Services ---
	limiter := ratelimit.NewLimiter(kvStore, locker, logger, cfg.RateLimitWindow, cfg.RateLimitMax, cfg.RateLockWait, m)
	submitUseCase := usecase.NewSubmitUseCase(
		store,
		limiter,
		alerts,
		logger,
		m,
		cfg.APIKey,
		cfg.MaxDescriptionLength,
		form.Policy{RequireFields: cfg.RequireFields},
	)

	// --- Initialize Gateway Server ---
	router := api.NewRouter(cfg, logger, submitUseCase)
	gatewayServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      middleware.Logging(logger)(router),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		logger.Info("starting gateway server", "addr", gatewayServer.Addr)
		if err := gatewayServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("gateway server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := gatewayServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gateway server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}
