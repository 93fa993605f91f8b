package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pdf-toolkit/internal/domain"
)

// Dispatcher runs one conversion at a time and owns the job state, the
// active cancellation token and the artifact slot.
type Dispatcher struct {
	mu         sync.Mutex
	strategies map[domain.Tool]Strategy
	store      *ArtifactStore
	saver      domain.Saver
	hub        *ProgressHub
	logger     domain.Logger

	token      *CancellationToken
	generation uint64
	snapshot   domain.JobSnapshot
}

// NewDispatcher creates a dispatcher. saver and hub may be nil.
func NewDispatcher(strategies map[domain.Tool]Strategy, store *ArtifactStore, saver domain.Saver, hub *ProgressHub, logger domain.Logger) *Dispatcher {
	if store == nil {
		store = NewArtifactStore()
	}
	return &Dispatcher{
		strategies: strategies,
		store:      store,
		saver:      saver,
		hub:        hub,
		logger:     logger,
		snapshot:   domain.JobSnapshot{Status: domain.JobStatusIdle, UpdatedAt: time.Now().UTC()},
	}
}

// Run converts files with tool and reports how the run ended.
func (d *Dispatcher) Run(ctx context.Context, tool domain.Tool, files []domain.FileHandle) domain.Outcome {
	return d.RunWithProgress(ctx, tool, files, nil)
}

// RunWithProgress is Run with an extra progress sink that sees every update.
// Cancelling ctx trips the job's token.
func (d *Dispatcher) RunWithProgress(ctx context.Context, tool domain.Tool, files []domain.FileHandle, progress domain.ProgressReporter) domain.Outcome {
	strategy := d.mustStrategy(tool)

	if err := validateFiles(tool, files); err != nil {
		d.logger.Warn("Conversion rejected", "tool", tool, "reason", err.Error())
		return domain.Outcome{Tool: tool, Status: domain.OutcomeFailed, Message: err.Error(), Err: err}
	}

	job, token, gen := d.begin(ctx, tool, files, progress)
	stop := context.AfterFunc(ctx, token.Trip)
	defer stop()

	d.logger.Info("Conversion started", "job_id", job.ID, "tool", tool, "files", len(files))
	artifact, err := strategy.Convert(token.Context(), job)
	if err == nil && artifact == nil {
		err = fmt.Errorf("%s produced no artifact", tool)
	}
	return d.finish(ctx, job, token, gen, artifact, err)
}

// Cancel trips the running job's token. The job notices at its next poll.
func (d *Dispatcher) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.token == nil || d.snapshot.Status != domain.JobStatusRunning {
		return domain.ErrNoRunningJob
	}
	d.token.Trip()
	d.logger.Info("Conversion cancel requested", "job_id", d.snapshot.ID, "tool", d.snapshot.Tool)
	return nil
}

// Reset drops the retained artifact and the job state. A running job is
// cancelled and its result discarded.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.token != nil {
		d.token.Trip()
		d.token = nil
	}
	d.generation++
	d.store.Clear()
	d.snapshot = domain.JobSnapshot{Status: domain.JobStatusIdle, UpdatedAt: time.Now().UTC()}
}

// Current returns a copy of the job state.
func (d *Dispatcher) Current() domain.JobSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot
}

// Artifact returns the retained artifact.
func (d *Dispatcher) Artifact() (*domain.Artifact, error) {
	return d.store.Retrieve()
}

func (d *Dispatcher) mustStrategy(tool domain.Tool) Strategy {
	strategy, ok := d.strategies[tool]
	if !ok {
		panic(fmt.Sprintf("no conversion strategy registered for tool %q", tool))
	}
	return strategy
}

func validateFiles(tool domain.Tool, files []domain.FileHandle) error {
	if len(files) == 0 {
		return &domain.ValidationError{Field: "files", Message: "select at least one PDF file"}
	}
	if need := tool.MinFiles(); len(files) < need {
		return &domain.ValidationError{
			Field:   "files",
			Message: fmt.Sprintf("%s requires at least %d files", tool, need),
		}
	}
	return nil
}

func (d *Dispatcher) begin(ctx context.Context, tool domain.Tool, files []domain.FileHandle, progress domain.ProgressReporter) (*domain.ConversionJob, *CancellationToken, uint64) {
	d.mu.Lock()
	if d.token != nil {
		d.token.Trip()
	}
	d.store.Clear()

	token := NewCancellationToken(ctx)
	d.token = token
	d.generation++
	gen := d.generation

	info := tool.Info()
	now := time.Now().UTC()
	job := &domain.ConversionJob{
		ID:        uuid.NewString(),
		Tool:      tool,
		Files:     append([]domain.FileHandle(nil), files...),
		Cancel:    token,
		StartedAt: now,
	}
	d.snapshot = domain.JobSnapshot{
		ID:        job.ID,
		Tool:      tool,
		Status:    domain.JobStatusRunning,
		Message:   info.Message,
		UpdatedAt: now,
	}
	d.mu.Unlock()

	tracker := NewProgressTracker(job.ID, tool, d.hub, progress)
	tracker.onEvent = d.observe
	job.Progress = tracker
	tracker.Update(0, info.Message)

	return job, token, gen
}

// observe copies running progress into the snapshot of the same job.
func (d *Dispatcher) observe(evt domain.ProgressEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.snapshot.ID != evt.JobID || d.snapshot.Status != domain.JobStatusRunning {
		return
	}
	d.snapshot.Percent = evt.Percent
	d.snapshot.Message = evt.Message
	d.snapshot.UpdatedAt = evt.Timestamp
}

func (d *Dispatcher) finish(ctx context.Context, job *domain.ConversionJob, token *CancellationToken, gen uint64, artifact *domain.Artifact, err error) domain.Outcome {
	defer token.release()

	outcome := domain.Outcome{JobID: job.ID, Tool: job.Tool}
	if err != nil && token.Tripped() && errors.Is(err, context.Canceled) {
		err = domain.ErrCancelled
	}

	d.mu.Lock()
	if gen != d.generation {
		d.mu.Unlock()
		d.logger.Info("Conversion superseded", "job_id", job.ID, "tool", job.Tool)
		outcome.Status = domain.OutcomeCancelled
		outcome.Err = domain.ErrCancelled
		return outcome
	}

	if err != nil {
		d.toIdle()
		d.mu.Unlock()

		if domain.IsCancelled(err) {
			d.logger.Info("Conversion cancelled", "job_id", job.ID, "tool", job.Tool)
			d.publish(job, domain.JobStatusCancelled, 0, "Conversion cancelled")
			outcome.Status = domain.OutcomeCancelled
			outcome.Err = domain.ErrCancelled
			return outcome
		}

		d.logger.Error("Conversion failed", err, "job_id", job.ID, "tool", job.Tool)
		d.publish(job, domain.JobStatusFailed, 0, err.Error())
		outcome.Status = domain.OutcomeFailed
		outcome.Message = err.Error()
		outcome.Err = err
		return outcome
	}

	retain := job.Tool.Delivery() == domain.DeliverRetain
	if retain {
		d.store.Store(artifact)
	}
	message := job.Tool.CompletionMessage()
	if !retain {
		message = fmt.Sprintf("%s saved.", artifact.Filename)
	}
	d.token = nil
	d.snapshot.Status = domain.JobStatusCompleted
	d.snapshot.Percent = 100
	d.snapshot.Message = message
	d.snapshot.UpdatedAt = time.Now().UTC()
	d.mu.Unlock()

	outcome.Status = domain.OutcomeCompleted
	outcome.Artifact = artifact
	outcome.Message = message

	if !retain && d.saver != nil {
		if saveErr := d.saver.Save(context.WithoutCancel(ctx), artifact.Data, artifact.Filename); saveErr != nil {
			d.logger.Error("Failed to save archive", saveErr, "job_id", job.ID, "filename", artifact.Filename)
		} else {
			outcome.AutoSaved = true
		}
	}

	job.Progress.Update(100, "Conversion complete")
	d.publish(job, domain.JobStatusCompleted, 100, message)
	d.logger.Info("Conversion completed",
		"job_id", job.ID,
		"tool", job.Tool,
		"filename", artifact.Filename,
		"bytes", artifact.Size(),
		"duration_ms", time.Since(job.StartedAt).Milliseconds(),
	)
	return outcome
}

// toIdle clears the slot after a cancelled or failed run. d.mu must be held.
func (d *Dispatcher) toIdle() {
	d.token = nil
	d.store.Clear()
	d.snapshot = domain.JobSnapshot{Status: domain.JobStatusIdle, UpdatedAt: time.Now().UTC()}
}

func (d *Dispatcher) publish(job *domain.ConversionJob, status domain.JobStatus, percent float64, message string) {
	if d.hub == nil {
		return
	}
	d.hub.Publish(domain.ProgressEvent{
		JobID:   job.ID,
		Tool:    job.Tool,
		Status:  status,
		Percent: percent,
		Message: message,
	})
}
