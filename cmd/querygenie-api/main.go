package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/querygenie/querygenie/internal/account"
	"github.com/querygenie/querygenie/internal/api"
	"github.com/querygenie/querygenie/internal/config"
	"github.com/querygenie/querygenie/internal/connection"
	"github.com/querygenie/querygenie/internal/nl2sql"
	"github.com/querygenie/querygenie/internal/observability"
	"github.com/querygenie/querygenie/internal/pipeline"
	"github.com/querygenie/querygenie/internal/store"
)

func main() {
	cfg, err := config.LoadFromEnv("querygenie-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	storeDB, err := store.Open(context.Background(), cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open application store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = storeDB.Close() }()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	applied, err := store.NewMigrator().Up(migrateCtx, storeDB, 0)
	cancelMigrate()
	if err != nil {
		logger.Error("failed to migrate application store", slog.Any("error", err))
		os.Exit(1)
	}
	if applied > 0 {
		logger.Info("application store migrated", slog.Int("applied", applied))
	}

	translator, err := nl2sql.NewOpenAITranslator(nl2sql.OpenAIConfig{
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize query translator", slog.Any("error", err))
		os.Exit(1)
	}

	mailer := account.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, logger)
	accounts := account.NewService(
		store.NewUserRepository(storeDB),
		account.NewOTPStore(cfg.OTP.TTL),
		mailer,
		logger,
	)

	connections := connection.NewManager(logger, nil)
	defer connections.Close()

	deps := api.Dependencies{
		Logger:      logger,
		Accounts:    accounts,
		Sessions:    store.NewSessionRepository(storeDB),
		Connections: connections,
		Pipeline:    pipeline.New(translator, logger),
		Target:      cfg.Target,
		Readiness: api.CombineReadinessChecks(
			api.CheckStorePath(cfg),
			api.CheckTranslatorConfig(cfg),
			func(ctx context.Context) error { return storeDB.PingContext(ctx) },
		),
		DependencyTimout: time.Second,
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
