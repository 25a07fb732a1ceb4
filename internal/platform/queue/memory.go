package queue

import (
	"context"
	"fmt"

	"voice_motto/internal/common"
	"voice_motto/internal/domain/model"
)

// MemoryQueue is a bounded in-process queue for single-binary deployments
// and tests.
type MemoryQueue struct {
	tasks chan model.TranscriptionTask
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size < 1 {
		size = 1
	}
	return &MemoryQueue{tasks: make(chan model.TranscriptionTask, size)}
}

// Enqueue never blocks: a full buffer is reported as unavailable so the
// request path stays bounded.
func (q *MemoryQueue) Enqueue(ctx context.Context, task model.TranscriptionTask) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.tasks <- task:
		return nil
	default:
		return fmt.Errorf("memory queue full (%d tasks): %w", cap(q.tasks), common.ErrServiceUnavailable)
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (model.TranscriptionTask, error) {
	select {
	case <-ctx.Done():
		return model.TranscriptionTask{}, ctx.Err()
	case task := <-q.tasks:
		return task, nil
	}
}
