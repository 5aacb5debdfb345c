package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fullstackverse/form-gateway/internal/adapter/api/middleware"
	"github.com/fullstackverse/form-gateway/internal/pkg/config"
	"github.com/fullstackverse/form-gateway/internal/pkg/logger"
	"github.com/fullstackverse/form-gateway/internal/proxy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.UpstreamURL == "" {
		logger.Error("UPSTREAM_URL is required, refusing to start without a forwarding target")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	proxyServer := proxy.NewServer(cfg, logger)
	server := &http.Server{
		Addr:         cfg.ProxyListenAddr,
		Handler:      middleware.Logging(logger)(proxyServer.Handler()),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		logger.Info("starting proxy server", "addr", server.Addr, "upstream", cfg.UpstreamURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("proxy server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down proxy...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("proxy shutdown failed", "error", err)
	}

	logger.Info("proxy shut down gracefully")
}
