package main

import (
	"context"
	"errors"
	"os"
	"time"

	"saldo/internal/backend"
	"saldo/internal/cli"
	applog "saldo/internal/log"
	"saldo/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, cfgErr := cli.LoadAndValidateConfig()
	if cfg == nil {
		logger := cli.SetupLogger("info", "text", applog.ComponentWorker)
		logger.Error("Configuration validation failed", "error", cfgErr)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, applog.ComponentWorker)
	logger.Info("Starting saldo-worker")

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	if bcfg.Type == backend.MemoryBackend {
		// The API's memory store lives in another process; nothing to read.
		logger.Error("saldo-worker needs a shared store, set DATA_BACKEND to sqlite or postgres")
		os.Exit(1)
	}

	st, err := backend.OpenStore(bcfg)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer st.Close()

	mirror, err := backend.NewFactory(logger).CreateMirror(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize mirror", "error", err)
		os.Exit(1)
	}

	consumer, err := backend.ConnectConsumer(bcfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	mw := worker.NewMirrorWorker(st, mirror)
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Consuming ledger events", "queue", cfg.AMQPQueue, "mirror_enabled", cfg.MirrorEnabled())
	if err := consumer.Consume(ctx, mw.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
