package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"voice_motto/internal/common"
	"voice_motto/internal/domain/model"
	"voice_motto/internal/domain/repository"
	"voice_motto/internal/platform/queue"
	"voice_motto/internal/platform/storage"
	"voice_motto/internal/platform/transcribe"

	"golang.org/x/sync/errgroup"
)

// SuccessMessage is recorded as the result of every successful job.
const SuccessMessage = "Motto transcribed and stored"

// dequeueBackoff is how long a consumer waits after a broker error.
const dequeueBackoff = time.Second

// MottoEncrypter is satisfied by *security.MottoCodec.
type MottoEncrypter interface {
	Encrypt(plaintext string) ([]byte, error)
}

type TranscriptionWorker struct {
	jobRepo     repository.TranscriptionJobRepository
	mottos      repository.MottoStore
	artifacts   storage.ArtifactStore
	transcriber transcribe.Transcriber
	codec       MottoEncrypter
	consumer    queue.Consumer
	logger      *slog.Logger
}

func NewTranscriptionWorker(
	jobRepo repository.TranscriptionJobRepository,
	mottos repository.MottoStore,
	artifacts storage.ArtifactStore,
	transcriber transcribe.Transcriber,
	codec MottoEncrypter,
	consumer queue.Consumer,
	logger *slog.Logger,
) *TranscriptionWorker {
	return &TranscriptionWorker{
		jobRepo:     jobRepo,
		mottos:      mottos,
		artifacts:   artifacts,
		transcriber: transcriber,
		codec:       codec,
		consumer:    consumer,
		logger:      logger,
	}
}

// Run starts concurrency consumer loops and blocks until ctx is cancelled and
// every in-flight job has finished.
func (w *TranscriptionWorker) Run(ctx context.Context, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < concurrency; i++ {
		id := i
		g.Go(func() error {
			return w.Start(gctx, id)
		})
	}
	return g.Wait()
}

// Start consumes tasks until ctx is cancelled. A failing job never stops the
// loop.
func (w *TranscriptionWorker) Start(ctx context.Context, consumerID int) error {
	logger := w.logger.With("consumer", consumerID)
	logger.Info("transcription worker started")
	defer logger.Info("transcription worker stopped")

	for {
		task, err := w.consumer.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, queue.ErrMalformedTask) {
				logger.Warn("dropping malformed task", "error", err)
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(dequeueBackoff):
			}
			continue
		}

		logger.Debug("picked up job", "job_id", task.JobID)
		if err := w.Process(ctx, task.JobID); err != nil {
			switch {
			case errors.Is(err, common.ErrInvalidTransition), errors.Is(err, common.ErrNotFound):
				logger.Info("job not claimable, skipping", "job_id", task.JobID, "error", err)
			default:
				logger.Warn("job finished with error", "job_id", task.JobID, "error", err)
			}
		}
	}
}

// Process runs one job end to end. If the claim fails nothing else is touched
// and the claim error is returned. Otherwise the job always ends SUCCEEDED or
// FAILED; the returned error describes the failure that was recorded.
func (w *TranscriptionWorker) Process(ctx context.Context, jobID string) (err error) {
	if err := w.jobRepo.Transition(ctx, jobID, model.JobStatePending, model.JobStateRunning, ""); err != nil {
		return err
	}
	logger := w.logger.With("job_id", jobID)
	logger.Info("job claimed")

	// Jobs are not cancellable: once claimed, a job runs to a terminal state
	// even if the worker is shutting down.
	jobCtx := context.WithoutCancel(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing job", "panic", r)
			err = fmt.Errorf("panic: %v: %w", r, common.ErrTranscription)
			if ferr := w.finish(jobCtx, jobID, model.JobStateFailed, err.Error()); ferr != nil {
				err = errors.Join(err, ferr)
			}
		}
	}()

	if runErr := w.run(jobCtx, jobID); runErr != nil {
		logger.Warn("job failed", "error", runErr)
		if ferr := w.finish(jobCtx, jobID, model.JobStateFailed, runErr.Error()); ferr != nil {
			return errors.Join(runErr, ferr)
		}
		return runErr
	}

	if err := w.finish(jobCtx, jobID, model.JobStateSucceeded, SuccessMessage); err != nil {
		return err
	}
	logger.Info("job succeeded")
	return nil
}

func (w *TranscriptionWorker) run(ctx context.Context, jobID string) error {
	job, err := w.jobRepo.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job: %v: %w", err, common.ErrPersistence)
	}

	audio, err := w.artifacts.Read(ctx, job.SourcePath)
	if err != nil {
		return fmt.Errorf("%w: read recording: %v", common.ErrTranscription, err)
	}
	text, err := w.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrTranscription, err)
	}

	ciphertext, err := w.codec.Encrypt(text)
	if err != nil {
		return fmt.Errorf("%w: encrypt motto: %v", common.ErrPersistence, err)
	}
	if err := w.mottos.SetMotto(ctx, job.OwnerID, ciphertext); err != nil {
		return fmt.Errorf("%w: store motto: %v", common.ErrPersistence, err)
	}
	return nil
}

func (w *TranscriptionWorker) finish(ctx context.Context, jobID string, to model.JobState, payload string) error {
	if err := w.jobRepo.Transition(ctx, jobID, model.JobStateRunning, to, payload); err != nil {
		w.logger.Error("failed to record job outcome", "job_id", jobID, "state", to, "error", err)
		return fmt.Errorf("record %s for job %s: %w", to, jobID, err)
	}
	return nil
}
