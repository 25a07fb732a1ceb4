// Package bootstrap wires configuration into the concrete stores, queue,
// services and worker shared by the server and worker binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"voice_motto/internal/app/service"
	"voice_motto/internal/app/worker"
	"voice_motto/internal/common"
	"voice_motto/internal/common/security"
	"voice_motto/internal/domain/repository"
	"voice_motto/internal/platform/config"
	"voice_motto/internal/platform/database"
	"voice_motto/internal/platform/queue"
	"voice_motto/internal/platform/storage"
	"voice_motto/internal/platform/transcribe"

	"github.com/redis/go-redis/v9"
)

type Components struct {
	Tokens *security.TokenService
	Codec  *security.MottoCodec

	JobRepo  repository.TranscriptionJobRepository
	UserRepo repository.UserRepository
	Queue    queue.Queue

	AuthService       *service.AuthService
	ProfileService    *service.ProfileService
	SubmissionService *service.SubmissionService
	StatusService     *service.StatusService

	Worker *worker.TranscriptionWorker

	db  *sql.DB
	rdb *redis.Client
}

// Build connects to the configured backends and assembles every component.
// Close must be called to release connections.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	c := &Components{
		Tokens: security.NewTokenService([]byte(cfg.JWTSecret), cfg.JWTExp),
	}

	codec, err := security.NewMottoCodec(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("build codec: %v: %w", err, common.ErrConfiguration)
	}
	c.Codec = codec

	if err := c.openStores(ctx, cfg, logger); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.openQueue(ctx, cfg, logger); err != nil {
		c.Close()
		return nil, err
	}

	artifacts, err := storage.NewLocalStore(cfg.UploadFolder)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.AuthService = service.NewAuthService(c.UserRepo, c.Tokens)
	c.ProfileService = service.NewProfileService(c.UserRepo, c.Codec, logger)
	c.SubmissionService = service.NewSubmissionService(c.JobRepo, artifacts, c.Queue, cfg.AllowedExtensions, logger)
	c.StatusService = service.NewStatusService(c.JobRepo)
	c.Worker = worker.NewTranscriptionWorker(c.JobRepo, c.UserRepo, artifacts, NewTranscriber(cfg), c.Codec, c.Queue, logger)
	return c, nil
}

func (c *Components) openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory stores; data is lost on restart")
		c.JobRepo = repository.NewMemoryTranscriptionJobRepository()
		c.UserRepo = repository.NewMemoryUserRepository()
		return nil
	case config.DriverPostgres:
		db, err := database.Connect(ctx, cfg.DB.ConnString())
		if err != nil {
			return err
		}
		c.db = db
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("database connected")
		c.JobRepo = repository.NewPgTranscriptionJobRepository(db)
		c.UserRepo = repository.NewPgUserRepository(db)
		return nil
	default:
		return fmt.Errorf("unknown store driver %q: %w", cfg.StoreDriver, common.ErrConfiguration)
	}
}

func (c *Components) openQueue(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	switch cfg.QueueDriver {
	case config.DriverMemory:
		c.Queue = queue.NewMemoryQueue(cfg.MemoryQueueSize)
		return nil
	case config.DriverRedis:
		rdb, err := queue.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		c.rdb = rdb
		logger.Info("redis connected", "addr", cfg.Redis.Addr, "queue", cfg.TranscriptionQueueName)
		c.Queue = queue.NewRedisQueue(rdb, cfg.TranscriptionQueueName)
		return nil
	default:
		return fmt.Errorf("unknown queue driver %q: %w", cfg.QueueDriver, common.ErrConfiguration)
	}
}

// NewTranscriber picks the engine named by cfg.Transcriber.
func NewTranscriber(cfg *config.Config) transcribe.Transcriber {
	if cfg.Transcriber == config.TranscriberWhisper {
		w := cfg.Whisper
		return transcribe.NewWhisperCLI(w.FFmpegPath, w.WhisperPath, w.ModelPath, w.Language)
	}
	return transcribe.Static{Text: cfg.DummyTranscript}
}

// Shared reports whether another process can see the same jobs and queue.
func Shared(cfg *config.Config) bool {
	return cfg.StoreDriver != config.DriverMemory && cfg.QueueDriver != config.DriverMemory
}

func (c *Components) Close() {
	if c.rdb != nil {
		c.rdb.Close()
	}
	if c.db != nil {
		c.db.Close()
	}
}

// ShutdownTimeout bounds graceful shutdown in both binaries: HTTP draining
// in the server and in-flight jobs in RunWorker.
const ShutdownTimeout = 15 * time.Second

// ErrShutdownTimeout is returned by RunWorker when jobs were still running
// after the grace period. Those jobs stay RUNNING.
var ErrShutdownTimeout = errors.New("in-flight jobs did not finish before shutdown timeout")

// RunWorker runs the consumer loops until ctx is cancelled, then waits up to
// grace for claimed jobs to reach a terminal state.
func RunWorker(ctx context.Context, w *worker.TranscriptionWorker, concurrency int, grace time.Duration, logger *slog.Logger) error {
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, concurrency) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	logger.Info("waiting for in-flight jobs", "grace", grace)
	select {
	case err := <-done:
		return err
	case <-time.After(grace):
		logger.Warn("shutdown timeout reached with jobs still running", "grace", grace)
		return ErrShutdownTimeout
	}
}
