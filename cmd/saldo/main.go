package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"saldo/internal/backend"
	"saldo/internal/cli"
	apphttp "saldo/internal/http"
	applog "saldo/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg, cfgErr := cli.LoadAndValidateConfig()
	if cfg == nil {
		// Log with defaults so the validation report is still structured.
		logger := cli.SetupLogger("info", "text", applog.ComponentApp)
		logger.Error("Configuration validation failed", "error", cfgErr)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, applog.ComponentApp)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RequestTimeout:     cfg.RequestTimeout,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		JWTSecret:          cfg.AuthJWTSecret,
	}, res.Ledger, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	if cfg.AuthJWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET not set, trusting identity headers")
	}
	logger.Info("Starting saldo server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"delete_policy", cfg.AccountDeletePolicy)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
