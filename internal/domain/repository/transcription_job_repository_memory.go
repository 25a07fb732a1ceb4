package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"voice_motto/internal/common"
	"voice_motto/internal/domain/model"

	"github.com/alphadose/haxmap"
	"github.com/google/uuid"
)

// memoryTranscriptionJobRepository keeps jobs in a haxmap. Reads are
// lock-free; writes are serialised by mu so the state check and the swap
// happen as one step. Stored values are never mutated in place.
type memoryTranscriptionJobRepository struct {
	mu    sync.Mutex
	jobs  *haxmap.Map[string, *model.TranscriptionJob]
	newID func() string
	now   func() time.Time
}

func NewMemoryTranscriptionJobRepository() TranscriptionJobRepository {
	return &memoryTranscriptionJobRepository{
		jobs:  haxmap.New[string, *model.TranscriptionJob](),
		newID: uuid.NewString,
		now:   time.Now,
	}
}

func (r *memoryTranscriptionJobRepository) Create(_ context.Context, ownerID, sourcePath string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := 0; i < createAttempts; i++ {
		id := r.newID()
		if _, exists := r.jobs.Get(id); exists {
			continue
		}
		now := r.now().UTC()
		r.jobs.Set(id, &model.TranscriptionJob{
			ID:         id,
			OwnerID:    ownerID,
			SourcePath: sourcePath,
			State:      model.JobStatePending,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		return id, nil
	}
	return "", fmt.Errorf("memoryTranscriptionJobRepository.Create: id collision: %w", common.ErrConflict)
}

func (r *memoryTranscriptionJobRepository) Transition(_ context.Context, jobID string, from, to model.JobState, payload string) error {
	if !model.CanTransition(from, to) {
		return fmt.Errorf("job %s: %s -> %s: %w", jobID, from, to, common.ErrInvalidTransition)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.jobs.Get(jobID)
	if !ok {
		return fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
	}
	if current.State != from {
		return fmt.Errorf("job %s is %s, expected %s: %w", jobID, current.State, from, common.ErrInvalidTransition)
	}

	next := cloneJob(current)
	next.State = to
	next.UpdatedAt = r.now().UTC()
	switch to {
	case model.JobStateSucceeded:
		next.Result = &payload
	case model.JobStateFailed:
		next.Error = &payload
	}
	r.jobs.Set(jobID, next)
	return nil
}

func (r *memoryTranscriptionJobRepository) Get(_ context.Context, jobID string) (*model.TranscriptionJob, error) {
	job, ok := r.jobs.Get(jobID)
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
	}
	return cloneJob(job), nil
}

func cloneJob(j *model.TranscriptionJob) *model.TranscriptionJob {
	c := *j
	if j.Result != nil {
		v := *j.Result
		c.Result = &v
	}
	if j.Error != nil {
		v := *j.Error
		c.Error = &v
	}
	return &c
}
