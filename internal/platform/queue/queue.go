package queue

import (
	"context"
	"errors"

	"voice_motto/internal/domain/model"
)

// ErrMalformedTask is returned by Dequeue when a message cannot be decoded.
// The message is dropped; consumers should log and keep going.
var ErrMalformedTask = errors.New("malformed transcription task")

// Publisher hands a task to the dispatch mechanism without waiting for it to run.
type Publisher interface {
	Enqueue(ctx context.Context, task model.TranscriptionTask) error
}

// Consumer blocks until a task is available or ctx is done.
type Consumer interface {
	Dequeue(ctx context.Context) (model.TranscriptionTask, error)
}

type Queue interface {
	Publisher
	Consumer
}
