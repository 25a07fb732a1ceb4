package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"voice_motto/internal/common"
	"voice_motto/internal/domain/model"
	"voice_motto/internal/domain/repository"
	"voice_motto/internal/platform/queue"
	"voice_motto/internal/platform/storage"

	"github.com/gosimple/slug"
)

// SubmissionService accepts uploads and schedules them for transcription.
// It never waits for the worker.
type SubmissionService struct {
	jobRepo   repository.TranscriptionJobRepository
	artifacts storage.ArtifactStore
	publisher queue.Publisher
	allowed   map[string]struct{}
	logger    *slog.Logger
}

func NewSubmissionService(
	jobRepo repository.TranscriptionJobRepository,
	artifacts storage.ArtifactStore,
	publisher queue.Publisher,
	allowedExtensions []string,
	logger *slog.Logger,
) *SubmissionService {
	allowed := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &SubmissionService{
		jobRepo:   jobRepo,
		artifacts: artifacts,
		publisher: publisher,
		allowed:   allowed,
		logger:    logger,
	}
}

// Submit validates the upload, stores it under a name derived from the
// owner, creates a PENDING job and enqueues it. The returned id is both the
// job id and the task id clients poll with.
func (s *SubmissionService) Submit(ctx context.Context, ownerID, filename string, data []byte) (string, error) {
	if ownerID == "" {
		return "", common.Errorf("owner is required: %w", common.ErrUnauthorized)
	}
	if filename == "" || len(data) == 0 {
		return "", common.ErrMissingFile
	}
	ext, ok := s.extension(filename)
	if !ok {
		return "", common.Errorf("%q: %w", filename, common.ErrUnsupportedType)
	}

	sourcePath, err := s.artifacts.Save(ctx, ArtifactName(ownerID, ext), data)
	if err != nil {
		return "", common.Errorf("failed to store upload: %w", err)
	}

	jobID, err := s.jobRepo.Create(ctx, ownerID, sourcePath)
	if err != nil {
		return "", common.Errorf("failed to create transcription job: %w", err)
	}

	if err := s.publisher.Enqueue(ctx, model.TranscriptionTask{JobID: jobID}); err != nil {
		// The job row stays PENDING; a re-submission creates a fresh job.
		s.logger.Error("failed to enqueue transcription job", "job_id", jobID, "owner_id", ownerID, "error", err)
		return "", common.Errorf("failed to enqueue job %s: %v: %w", jobID, err, common.ErrServiceUnavailable)
	}

	s.logger.Info("transcription job enqueued", "job_id", jobID, "owner_id", ownerID, "bytes", len(data))
	return jobID, nil
}

// extension returns the lower-cased extension after the last dot if it is
// accepted.
func (s *SubmissionService) extension(filename string) (string, bool) {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 || i == len(filename)-1 {
		return "", false
	}
	ext := strings.ToLower(filename[i+1:])
	_, ok := s.allowed[ext]
	return ext, ok
}

// ArtifactName is the deterministic storage name for an owner's upload, so a
// re-upload replaces the previous one. Owners whose id is not already
// slug-safe get a short hash suffix to keep names distinct.
func ArtifactName(ownerID, ext string) string {
	name := slug.Make(ownerID)
	if name != ownerID {
		sum := sha256.Sum256([]byte(ownerID))
		suffix := hex.EncodeToString(sum[:4])
		if name == "" {
			name = suffix
		} else {
			name = name + "-" + suffix
		}
	}
	return fmt.Sprintf("user_%s_motto.%s", name, ext)
}
