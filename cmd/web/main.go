package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"transportcli/internal/config"
	"transportcli/internal/dataprocessing"
	apperrors "transportcli/internal/errors"
	"transportcli/internal/infrastructure"
	"transportcli/internal/middleware"
	"transportcli/internal/services"
	transporthttp "transportcli/internal/transport/http"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	paths, err := cfg.GetPaths()
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	if err := dataprocessing.ValidateProfiles(); err != nil {
		return fmt.Errorf("validate profiles: %w", err)
	}

	metrics := infrastructure.NewMetrics("transportcli")
	dataService := services.NewDataService(paths, logger, metrics)
	errorHandler := apperrors.NewErrorHandler(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

	r.Mount("/api/health", transporthttp.NewHealthHandler(version).Routes())
	r.Mount("/api/datasets", transporthttp.NewDatasetHandler(dataService, logger, errorHandler).Routes())
	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			slog.Int("port", cfg.Server.Port),
			slog.String("processed_dir", paths.ProcessedDir))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
