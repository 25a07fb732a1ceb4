package model

import "time"

type JobState string

const (
	JobStatePending   JobState = "PENDING"
	JobStateRunning   JobState = "RUNNING"
	JobStateSucceeded JobState = "SUCCEEDED"
	JobStateFailed    JobState = "FAILED"
)

// Valid reports whether s is one of the known states.
func (s JobState) Valid() bool {
	switch s {
	case JobStatePending, JobStateRunning, JobStateSucceeded, JobStateFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether no transition leaves s.
func (s JobState) Terminal() bool {
	return s == JobStateSucceeded || s == JobStateFailed
}

// CanTransition enforces the forward-only edges
// PENDING -> RUNNING -> SUCCEEDED|FAILED.
func CanTransition(from, to JobState) bool {
	if !from.Valid() || !to.Valid() || from.Terminal() {
		return false
	}
	switch from {
	case JobStatePending:
		return to == JobStateRunning
	case JobStateRunning:
		return to == JobStateSucceeded || to == JobStateFailed
	default:
		return false
	}
}

// TranscriptionJob tracks one uploaded recording through transcription.
// The transcript itself is never stored here; Result only carries a status
// message once the encrypted motto has been written to the user store.
type TranscriptionJob struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	SourcePath string    `json:"-"`
	State      JobState  `json:"state"`
	Result     *string   `json:"result,omitempty"` // only when SUCCEEDED
	Error      *string   `json:"error,omitempty"`  // only when FAILED
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TranscriptionTask is the message placed on the dispatch queue. Its JobID is
// the same id returned to the client.
type TranscriptionTask struct {
	JobID string `json:"job_id"`
}
