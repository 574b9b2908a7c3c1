package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/priyankraghav/sentra/internal/store"
	"github.com/priyankraghav/sentra/internal/tasks"
	"github.com/priyankraghav/sentra/pkg/models"
)

// runJob drives one job from pending to a terminal state in its own
// goroutine. After creation the runner is the sole writer of the job record.
// The cancellation token is checked at each target boundary, so a cancel
// request is observed within at most one target's processing time. Ephemeral
// registry state and the admission slot are released on every exit path,
// including panics.
func (o *Orchestrator) runJob(job *models.Job, targets []tasks.Target, handlers []tasks.Handler) {
	ctx := context.Background()

	defer o.sem.Release(1)
	defer o.registry.Clear(ctx, job.ID)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in job runner", "job_id", job.ID, "error", r)
			o.finish(ctx, job, models.JobStatusFailed, 0,
				store.WithErrorMessage(fmt.Sprintf("panic: %v", r)))
		}
	}()

	// A cancel that arrived while the job was still pending owns the record;
	// the rejected transition tells the runner to stand down.
	if err := o.store.UpdateJobStatus(ctx, job.ID, models.JobStatusRunning); err != nil {
		if !errors.Is(err, store.ErrInvalidTransition) {
			slog.Error("mark job running", "job_id", job.ID, "error", err)
		}
		return
	}
	o.registry.SetProgress(ctx, job.ID, 0)
	slog.Info("job started", "job_id", job.ID, "kind", job.Kind, "subtype", job.Subtype,
		"targets", len(targets))

	var summary models.ResultSummary
	total := len(targets)
	processed := 0

	for _, target := range targets {
		if o.registry.Cancelled(ctx, job.ID) {
			// Partial results are discarded; only progress survives.
			o.finish(ctx, job, models.JobStatusCancelled, progressFor(processed, total),
				store.WithErrorMessage("Scan was cancelled"))
			return
		}

		result, outputBytes := o.processTarget(ctx, job, target, handlers)
		summary.Counts.Add(result.Counts)
		summary.Targets = append(summary.Targets, result)
		summary.OutputBytes += outputBytes

		processed++
		o.registry.SetProgress(ctx, job.ID, progressFor(processed, total))
	}

	summary.TotalFindings = summary.Counts.Total()
	o.finish(ctx, job, models.JobStatusCompleted, 100, store.WithResult(&summary))
}

// processTarget runs every handler for the job's subtype against one target.
// Handler failures never fail the job; they are downgraded to findings of
// severity "error" and the target is marked accordingly, favoring partial
// results over losing the whole run.
func (o *Orchestrator) processTarget(ctx context.Context, job *models.Job, target tasks.Target, handlers []tasks.Handler) (models.TargetResult, int) {
	result := models.TargetResult{
		Address: target.Address,
		Status:  models.TargetStatusOK,
	}
	if target.AssetID != nil {
		result.AssetID = target.AssetID.String()
	}

	outputBytes := 0
	for _, h := range handlers {
		res, err := h.Execute(ctx, job.TenantID, target)
		if err != nil {
			slog.Warn("task handler failed", "job_id", job.ID, "handler", h.Name(),
				"target", target.Address, "error", err)
			result.Status = models.TargetStatusError
			result.Findings = append(result.Findings, models.Finding{
				Title:    h.Name() + " handler failed",
				Severity: models.SeverityError,
				Detail:   err.Error(),
			})
			result.Counts.Count(models.SeverityError)
			continue
		}

		if res.Status == models.TargetStatusUnreachable && result.Status == models.TargetStatusOK {
			result.Status = models.TargetStatusUnreachable
		}
		for _, f := range res.Findings {
			result.Counts.Count(f.Severity)
		}
		result.Findings = append(result.Findings, res.Findings...)
		outputBytes += res.OutputBytes
	}

	return result, outputBytes
}

// finish writes the terminal record. Failures here are logged, not retried;
// the deferred registry clear still runs, so ephemeral state never leaks.
func (o *Orchestrator) finish(ctx context.Context, job *models.Job, status string, progress int, opts ...store.JobUpdateOption) {
	opts = append(opts, store.WithProgress(progress))
	if err := o.store.UpdateJobStatus(ctx, job.ID, status, opts...); err != nil {
		slog.Error("finalize job", "job_id", job.ID, "status", status, "error", err)
		return
	}
	slog.Info("job finished", "job_id", job.ID, "status", status, "progress", progress)
}

// progressFor maps processed/total onto a 0-100 percentage. total is always
// at least 1 by the time a runner exists.
func progressFor(processed, total int) int {
	return processed * 100 / total
}
