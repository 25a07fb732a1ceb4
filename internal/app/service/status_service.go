package service

import (
	"context"

	"voice_motto/internal/domain/model"
	"voice_motto/internal/domain/repository"
)

const (
	StatusTextPending = "Pending..."
	StatusTextRunning = "In progress..."
)

// TaskStatus is the client-facing view of a job.
type TaskStatus struct {
	State  model.JobState `json:"state"`
	Status string         `json:"status"`
}

// StatusService is the read-only poll surface over the job store.
type StatusService struct {
	jobRepo repository.TranscriptionJobRepository
}

func NewStatusService(jobRepo repository.TranscriptionJobRepository) *StatusService {
	return &StatusService{jobRepo: jobRepo}
}

// Status returns the job's state and text. Unknown ids surface as
// common.ErrNotFound so callers can tell "never existed" from "pending".
func (s *StatusService) Status(ctx context.Context, jobID string) (*TaskStatus, error) {
	job, err := s.jobRepo.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	status := &TaskStatus{State: job.State}
	switch job.State {
	case model.JobStatePending:
		status.Status = StatusTextPending
	case model.JobStateRunning:
		status.Status = StatusTextRunning
	case model.JobStateSucceeded:
		if job.Result != nil {
			status.Status = *job.Result
		}
	case model.JobStateFailed:
		if job.Error != nil {
			status.Status = *job.Error
		}
	}
	return status, nil
}
