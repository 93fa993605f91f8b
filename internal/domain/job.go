package domain

import (
	"context"
	"time"
)

// JobStatus tracks the lifecycle of the single conversion slot.
type JobStatus string

const (
	JobStatusIdle      JobStatus = "idle"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusCancelled JobStatus = "cancelled"
	JobStatusFailed    JobStatus = "failed"
)

// JobSnapshot is a read-only view of the current job.
type JobSnapshot struct {
	ID        string    `json:"id,omitempty"`
	Tool      Tool      `json:"tool,omitempty"`
	Status    JobStatus `json:"status"`
	Percent   float64   `json:"percent"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OutcomeStatus is the terminal state of one run.
type OutcomeStatus string

const (
	OutcomeCompleted OutcomeStatus = "completed"
	OutcomeCancelled OutcomeStatus = "cancelled"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome is what a run returns to its caller.
type Outcome struct {
	JobID     string        `json:"job_id,omitempty"`
	Tool      Tool          `json:"tool"`
	Status    OutcomeStatus `json:"status"`
	Artifact  *Artifact     `json:"artifact,omitempty"`
	AutoSaved bool          `json:"auto_saved,omitempty"`
	Message   string        `json:"message,omitempty"`
	Err       error         `json:"-"`
}

// Completed reports whether the run produced an artifact.
func (o Outcome) Completed() bool {
	return o.Status == OutcomeCompleted
}

// ProgressEvent is one progress or lifecycle notification.
type ProgressEvent struct {
	Seq       int64     `json:"seq"`
	JobID     string    `json:"job_id"`
	Tool      Tool      `json:"tool"`
	Status    JobStatus `json:"status"`
	Percent   float64   `json:"percent"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CancelSignal is the read side of a job's cancellation token.
type CancelSignal interface {
	Tripped() bool
	Err() error
	Context() context.Context
}

// ConversionJob is one user-initiated run. It is discarded when the run ends.
type ConversionJob struct {
	ID        string
	Tool      Tool
	Files     []FileHandle
	Cancel    CancelSignal
	Progress  ProgressReporter
	StartedAt time.Time
}
