package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"voice_motto/internal/common"
	"voice_motto/internal/domain/model"

	"github.com/google/uuid"
)

// TranscriptionJobRepository is the job store. Transition is the only write
// path after Create, which keeps the state machine forward-only.
type TranscriptionJobRepository interface {
	Create(ctx context.Context, ownerID, sourcePath string) (string, error)
	// Transition moves jobID from `from` to `to` only if the job is currently
	// in `from`. payload becomes Result for SUCCEEDED and Error for FAILED.
	Transition(ctx context.Context, jobID string, from, to model.JobState, payload string) error
	Get(ctx context.Context, jobID string) (*model.TranscriptionJob, error)
}

// createAttempts bounds id regeneration on the (practically impossible)
// primary key collision.
const createAttempts = 3

type pgTranscriptionJobRepository struct {
	db    *sql.DB
	newID func() string
}

func NewPgTranscriptionJobRepository(db *sql.DB) TranscriptionJobRepository {
	return &pgTranscriptionJobRepository{db: db, newID: uuid.NewString}
}

func (r *pgTranscriptionJobRepository) Create(ctx context.Context, ownerID, sourcePath string) (string, error) {
	query := `INSERT INTO transcription_jobs (id, owner_id, source_path, state)
	          VALUES ($1, $2, $3, $4)`
	var lastErr error
	for i := 0; i < createAttempts; i++ {
		id := r.newID()
		_, err := r.db.ExecContext(ctx, query, id, ownerID, sourcePath, string(model.JobStatePending))
		if err == nil {
			return id, nil
		}
		if !common.IsUniqueViolation(err) {
			return "", fmt.Errorf("pgTranscriptionJobRepository.Create: %w", err)
		}
		lastErr = err
	}
	return "", fmt.Errorf("pgTranscriptionJobRepository.Create: id collision: %w", lastErr)
}

func (r *pgTranscriptionJobRepository) Transition(ctx context.Context, jobID string, from, to model.JobState, payload string) error {
	if !model.CanTransition(from, to) {
		return fmt.Errorf("job %s: %s -> %s: %w", jobID, from, to, common.ErrInvalidTransition)
	}
	result, errText := payloadColumns(to, payload)

	query := `UPDATE transcription_jobs
	          SET state = $3,
	              result = COALESCE($4, result),
	              error = COALESCE($5, error),
	              updated_at = now()
	          WHERE id = $1 AND state = $2`
	res, err := r.db.ExecContext(ctx, query, jobID, string(from), string(to), result, errText)
	if err != nil {
		return fmt.Errorf("pgTranscriptionJobRepository.Transition: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgTranscriptionJobRepository.Transition: rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	// Nothing matched: either the job is unknown or someone else moved it.
	var current string
	err = r.db.QueryRowContext(ctx, `SELECT state FROM transcription_jobs WHERE id = $1`, jobID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
		}
		return fmt.Errorf("pgTranscriptionJobRepository.Transition: %w", err)
	}
	return fmt.Errorf("job %s is %s, expected %s: %w", jobID, current, from, common.ErrInvalidTransition)
}

func (r *pgTranscriptionJobRepository) Get(ctx context.Context, jobID string) (*model.TranscriptionJob, error) {
	query := `SELECT id, owner_id, source_path, state, result, error, created_at, updated_at
	          FROM transcription_jobs WHERE id = $1`
	job := &model.TranscriptionJob{}
	var state string
	var result, errText sql.NullString
	err := r.db.QueryRowContext(ctx, query, jobID).Scan(
		&job.ID, &job.OwnerID, &job.SourcePath, &state, &result, &errText, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgTranscriptionJobRepository.Get: %w", err)
	}
	job.State = model.JobState(state)
	if !job.State.Valid() {
		return nil, fmt.Errorf("pgTranscriptionJobRepository.Get: job %s has unknown state %q", jobID, state)
	}
	if result.Valid {
		job.Result = &result.String
	}
	if errText.Valid {
		job.Error = &errText.String
	}
	return job, nil
}

// payloadColumns routes the transition payload to the column owned by the
// target state.
func payloadColumns(to model.JobState, payload string) (result, errText sql.NullString) {
	switch to {
	case model.JobStateSucceeded:
		result = sql.NullString{String: payload, Valid: true}
	case model.JobStateFailed:
		errText = sql.NullString{String: payload, Valid: true}
	}
	return result, errText
}
