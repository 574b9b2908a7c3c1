// Package jobs contains the background job orchestrator: admission control,
// per-job runners, target resolution, and the ephemeral runtime registry for
// progress and cancellation.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/priyankraghav/sentra/internal/store"
	"github.com/priyankraghav/sentra/internal/tasks"
	"github.com/priyankraghav/sentra/pkg/models"
	"golang.org/x/sync/semaphore"
)

// SnapshotCache caches terminal job snapshots so pollers of finished jobs do
// not hit the database on every request. Terminal snapshots are immutable,
// which is what makes this safe.
type SnapshotCache interface {
	GetJobSnapshot(ctx context.Context, jobID uuid.UUID) ([]byte, bool, error)
	SetJobSnapshot(ctx context.Context, jobID uuid.UUID, data []byte, ttl time.Duration) error
	DeleteJobSnapshot(ctx context.Context, jobID uuid.UUID) error
}

// Config tunes the orchestrator.
type Config struct {
	// MaxConcurrent caps jobs in the pending or running state; submissions
	// beyond it are rejected with ErrCapacityExceeded, never queued.
	MaxConcurrent int
	// SnapshotTTL bounds how long terminal snapshots stay cached.
	SnapshotTTL time.Duration
}

// Orchestrator admits, dispatches, and tracks background jobs. Submission is
// fire-and-forget: it returns as soon as the job record exists and a runner
// goroutine has been handed the work. Admission control and execution
// concurrency are the same number by construction: one semaphore slot is held
// from admission until the runner reaches a terminal state.
type Orchestrator struct {
	store       store.Store
	registry    Registry
	snapshots   SnapshotCache
	deps        tasks.Deps
	sem         *semaphore.Weighted
	snapshotTTL time.Duration
}

// New creates an Orchestrator. snapshots may be nil to disable snapshot
// caching.
func New(st store.Store, registry Registry, snapshots SnapshotCache, deps tasks.Deps, cfg Config) *Orchestrator {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 3
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 30 * time.Minute
	}
	return &Orchestrator{
		store:       st,
		registry:    registry,
		snapshots:   snapshots,
		deps:        deps,
		sem:         semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		snapshotTTL: cfg.SnapshotTTL,
	}
}

// SubmitParams describes one job submission.
type SubmitParams struct {
	TenantID  uuid.UUID
	CreatedBy uuid.UUID
	Kind      string
	Subtype   string
	Config    models.JobConfig
}

// Submit validates the configuration, admits the job against the concurrency
// cap, creates a pending job record, and dispatches a runner goroutine. It
// never blocks on job execution. Validation happens before admission and
// admission before creation, so a rejected submission leaves no trace.
func (o *Orchestrator) Submit(ctx context.Context, p SubmitParams) (*models.Job, error) {
	handlers, err := tasks.NewHandlers(p.Kind, p.Subtype, p.Config, o.deps)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	var targets []tasks.Target
	if p.Kind == models.JobKindScan {
		targets, err = ResolveTargets(ctx, o.store, p.TenantID, p.Config)
		if err != nil {
			return nil, err
		}
	} else {
		// A report is a single unit of work; its one target names the
		// section being generated.
		targets = []tasks.Target{{Address: p.Subtype}}
	}

	if !o.sem.TryAcquire(1) {
		return nil, ErrCapacityExceeded
	}

	now := time.Now().UTC()
	job := &models.Job{
		ID:        uuid.New(),
		TenantID:  p.TenantID,
		Kind:      p.Kind,
		Subtype:   p.Subtype,
		Status:    models.JobStatusPending,
		Config:    p.Config,
		CreatedBy: p.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.store.CreateJob(ctx, job); err != nil {
		o.sem.Release(1)
		return nil, fmt.Errorf("creating job: %w", err)
	}

	go o.runJob(job, targets, handlers)

	return job, nil
}

// Snapshot is a consistent point-in-time view of one job, the shape status
// pollers receive.
type Snapshot struct {
	ID           uuid.UUID             `json:"id"`
	TenantID     uuid.UUID             `json:"tenant_id"`
	Kind         string                `json:"kind"`
	Subtype      string                `json:"subtype"`
	Status       string                `json:"status"`
	Progress     int                   `json:"progress"`
	Result       *models.ResultSummary `json:"result,omitempty"`
	Error        *string               `json:"error,omitempty"`
	StartedAt    *time.Time            `json:"started_at,omitempty"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
	DurationSecs *int64                `json:"duration_secs,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

// Status returns the job's current snapshot. While the job runs, progress
// comes from the registry; once terminal, from the durable record. A job
// whose cancellation was accepted but whose runner has not yet stopped is
// reported as cancelled (accepted eventual consistency: the runner converges
// within one target's processing time).
func (o *Orchestrator) Status(ctx context.Context, jobID, tenantID uuid.UUID) (*Snapshot, error) {
	if o.snapshots != nil {
		if data, ok, err := o.snapshots.GetJobSnapshot(ctx, jobID); err == nil && ok {
			var snap Snapshot
			if json.Unmarshal(data, &snap) == nil && snap.TenantID == tenantID {
				return &snap, nil
			}
		}
	}

	job, err := o.store.GetJob(ctx, jobID, tenantID)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ID:           job.ID,
		TenantID:     job.TenantID,
		Kind:         job.Kind,
		Subtype:      job.Subtype,
		Status:       job.Status,
		Result:       job.Result,
		Error:        job.ErrorMessage,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
		DurationSecs: job.DurationSecs,
		CreatedAt:    job.CreatedAt,
	}

	switch job.Status {
	case models.JobStatusRunning:
		snap.Progress = o.registry.Progress(ctx, jobID)
		if o.registry.Cancelled(ctx, jobID) {
			snap.Status = models.JobStatusCancelled
			msg := "Cancelled by user"
			snap.Error = &msg
		}
	case models.JobStatusPending:
		snap.Progress = 0
	default:
		snap.Progress = job.Progress
		if o.snapshots != nil {
			if data, err := json.Marshal(snap); err == nil {
				_ = o.snapshots.SetJobSnapshot(ctx, jobID, data, o.snapshotTTL)
			}
		}
	}

	return snap, nil
}

// Cancel requests cancellation of a pending or running job. A pending job is
// cancelled directly; a running one gets its cancellation token set and the
// caller returns without waiting for the runner to stop. Cancelling a
// terminal job returns ErrInvalidState; an unknown id returns the store's
// not-found error.
func (o *Orchestrator) Cancel(ctx context.Context, jobID, tenantID uuid.UUID) error {
	job, err := o.store.GetJob(ctx, jobID, tenantID)
	if err != nil {
		return err
	}

	if models.TerminalStatus(job.Status) {
		return fmt.Errorf("%w: job is %s", ErrInvalidState, job.Status)
	}

	if job.Status == models.JobStatusPending {
		err := o.store.UpdateJobStatus(ctx, jobID, models.JobStatusCancelled,
			store.WithErrorMessage("Cancelled by user"))
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrInvalidTransition) {
			return fmt.Errorf("cancel pending job: %w", err)
		}
		// The runner won the race and the job is running now; fall through
		// to the cooperative token.
	}

	o.registry.RequestCancel(ctx, jobID)
	return nil
}

// List returns job summaries matching the filter, newest first, with the
// total match count for pagination.
func (o *Orchestrator) List(ctx context.Context, filter store.JobFilter) ([]*models.Job, int, error) {
	return o.store.ListJobs(ctx, filter)
}

// Delete removes a terminal job record. Active jobs cannot be deleted;
// cancel them first.
func (o *Orchestrator) Delete(ctx context.Context, jobID, tenantID uuid.UUID) error {
	err := o.store.DeleteJob(ctx, jobID, tenantID)
	if errors.Is(err, store.ErrInvalidTransition) {
		return fmt.Errorf("%w: job is still active", ErrInvalidState)
	}
	if err != nil {
		return err
	}
	if o.snapshots != nil {
		_ = o.snapshots.DeleteJobSnapshot(ctx, jobID)
	}
	return nil
}
