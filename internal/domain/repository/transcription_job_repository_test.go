package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"voice_motto/internal/common"
	"voice_motto/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTranscriptionJobRepository(t *testing.T) {
	runTranscriptionJobRepositoryContract(t, func(t *testing.T) TranscriptionJobRepository {
		return NewMemoryTranscriptionJobRepository()
	})
}

func TestPgTranscriptionJobRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	runTranscriptionJobRepositoryContract(t, func(t *testing.T) TranscriptionJobRepository {
		return NewPgTranscriptionJobRepository(setupTestDB(t))
	})
}

func runTranscriptionJobRepositoryContract(t *testing.T, newRepo func(t *testing.T) TranscriptionJobRepository) {
	ctx := context.Background()

	t.Run("create starts pending", func(t *testing.T) {
		repo := newRepo(t)
		id, err := repo.Create(ctx, "alice", "/uploads/user_alice_motto.webm")
		require.NoError(t, err)
		require.NotEmpty(t, id)

		job, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, job.ID)
		assert.Equal(t, "alice", job.OwnerID)
		assert.Equal(t, "/uploads/user_alice_motto.webm", job.SourcePath)
		assert.Equal(t, model.JobStatePending, job.State)
		assert.Nil(t, job.Result)
		assert.Nil(t, job.Error)
		assert.False(t, job.CreatedAt.IsZero())
	})

	t.Run("concurrent creates never collide", func(t *testing.T) {
		repo := newRepo(t)
		const n = 50
		ids := make([]string, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id, err := repo.Create(ctx, "bob", "/uploads/user_bob_motto.webm")
				assert.NoError(t, err)
				ids[i] = id
			}(i)
		}
		wg.Wait()

		seen := make(map[string]struct{}, n)
		for _, id := range ids {
			require.NotEmpty(t, id)
			seen[id] = struct{}{}
		}
		assert.Len(t, seen, n)
	})

	t.Run("success path stores result only", func(t *testing.T) {
		repo := newRepo(t)
		id, err := repo.Create(ctx, "alice", "/tmp/a.webm")
		require.NoError(t, err)

		require.NoError(t, repo.Transition(ctx, id, model.JobStatePending, model.JobStateRunning, "ignored"))
		job, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.JobStateRunning, job.State)
		assert.Nil(t, job.Result)
		assert.Nil(t, job.Error)

		require.NoError(t, repo.Transition(ctx, id, model.JobStateRunning, model.JobStateSucceeded, "stored"))
		job, err = repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.JobStateSucceeded, job.State)
		require.NotNil(t, job.Result)
		assert.Equal(t, "stored", *job.Result)
		assert.Nil(t, job.Error)
	})

	t.Run("failure path stores error only", func(t *testing.T) {
		repo := newRepo(t)
		id, err := repo.Create(ctx, "alice", "/tmp/a.webm")
		require.NoError(t, err)
		require.NoError(t, repo.Transition(ctx, id, model.JobStatePending, model.JobStateRunning, ""))
		require.NoError(t, repo.Transition(ctx, id, model.JobStateRunning, model.JobStateFailed, "boom"))

		job, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.JobStateFailed, job.State)
		require.NotNil(t, job.Error)
		assert.Equal(t, "boom", *job.Error)
		assert.Nil(t, job.Result)
	})

	t.Run("no reverse or repeated transitions", func(t *testing.T) {
		repo := newRepo(t)
		id, err := repo.Create(ctx, "alice", "/tmp/a.webm")
		require.NoError(t, err)

		// Skipping RUNNING is not an edge.
		err = repo.Transition(ctx, id, model.JobStatePending, model.JobStateSucceeded, "x")
		assert.ErrorIs(t, err, common.ErrInvalidTransition)

		require.NoError(t, repo.Transition(ctx, id, model.JobStatePending, model.JobStateRunning, ""))

		// Stale precondition.
		err = repo.Transition(ctx, id, model.JobStatePending, model.JobStateRunning, "")
		assert.ErrorIs(t, err, common.ErrInvalidTransition)

		require.NoError(t, repo.Transition(ctx, id, model.JobStateRunning, model.JobStateSucceeded, "ok"))

		for _, tr := range [][2]model.JobState{
			{model.JobStateRunning, model.JobStateFailed},
			{model.JobStateSucceeded, model.JobStateRunning},
			{model.JobStateSucceeded, model.JobStatePending},
			{model.JobStateSucceeded, model.JobStateFailed},
		} {
			err = repo.Transition(ctx, id, tr[0], tr[1], "")
			assert.ErrorIs(t, err, common.ErrInvalidTransition, "%s -> %s", tr[0], tr[1])
		}

		job, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.JobStateSucceeded, job.State)
		assert.Equal(t, "ok", *job.Result)
	})

	t.Run("unknown job", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Get(ctx, "nonexistent-id")
		assert.ErrorIs(t, err, common.ErrNotFound)

		err = repo.Transition(ctx, "nonexistent-id", model.JobStatePending, model.JobStateRunning, "")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("exactly one concurrent claim wins", func(t *testing.T) {
		repo := newRepo(t)
		id, err := repo.Create(ctx, "alice", "/tmp/a.webm")
		require.NoError(t, err)

		const claimers = 16
		var wins, conflicts atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < claimers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.Transition(ctx, id, model.JobStatePending, model.JobStateRunning, "")
				switch {
				case err == nil:
					wins.Add(1)
				case assert.ErrorIs(t, err, common.ErrInvalidTransition):
					conflicts.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(claimers-1), conflicts.Load())
	})

	t.Run("get returns a snapshot", func(t *testing.T) {
		repo := newRepo(t)
		id, err := repo.Create(ctx, "alice", "/tmp/a.webm")
		require.NoError(t, err)

		job, err := repo.Get(ctx, id)
		require.NoError(t, err)
		job.State = model.JobStateSucceeded

		again, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatePending, again.State)
	})
}
