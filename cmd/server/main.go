package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice_motto/internal/api"
	"voice_motto/internal/app/bootstrap"
	"voice_motto/internal/platform/config"
	"voice_motto/internal/platform/logging"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Stores, queue, services, worker
	components, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer components.Close()

	// 3. Router & HTTP Server
	router := api.NewRouter(
		logger,
		api.RouterOptions{
			MinAppVersion:  cfg.MinAppVersion,
			MaxUploadBytes: cfg.MaxUploadBytes,
			AccessLog:      true,
		},
		components.Tokens,
		components.AuthService,
		components.ProfileService,
		components.SubmissionService,
		components.StatusService,
	)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// 4. Embedded workers. With in-memory drivers they are the only consumers.
	if cfg.EmbeddedWorker || !bootstrap.Shared(cfg) {
		g.Go(func() error {
			return bootstrap.RunWorker(gctx, components.Worker, cfg.WorkerConcurrency, bootstrap.ShutdownTimeout, logger)
		})
		logger.Info("embedded transcription workers started", "concurrency", cfg.WorkerConcurrency)
	}

	g.Go(func() error {
		logger.Info("server starting", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 5. Graceful Shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), bootstrap.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server and workers stopped gracefully")
}
