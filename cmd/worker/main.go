package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"voice_motto/internal/app/bootstrap"
	"voice_motto/internal/platform/config"
	"voice_motto/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	if !bootstrap.Shared(cfg) {
		logger.Error("standalone worker needs STORE_DRIVER=postgres and QUEUE_DRIVER=redis")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer components.Close()

	logger.Info("worker service starting", "concurrency", cfg.WorkerConcurrency, "queue", cfg.TranscriptionQueueName)
	if err := bootstrap.RunWorker(ctx, components.Worker, cfg.WorkerConcurrency, bootstrap.ShutdownTimeout, logger); err != nil {
		logger.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("worker exited cleanly")
}
