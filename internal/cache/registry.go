package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/priyankraghav/sentra/internal/jobs"
)

// registryTTL is a safety net: registry entries are cleared explicitly on
// every job exit path, the expiry only mops up after a crashed process.
const registryTTL = 24 * time.Hour

// RedisRegistry is the jobs.Registry backed by Redis, for deployments where
// multiple instances must observe progress and cancellation for each other's
// jobs. Redis errors degrade to the registry's defaults (zero progress, not
// cancelled) and are logged rather than surfaced, matching the contract that
// reads never fail.
type RedisRegistry struct {
	cache Cache
}

var _ jobs.Registry = (*RedisRegistry)(nil)

// NewRedisRegistry creates a RedisRegistry on top of an existing cache.
func NewRedisRegistry(c Cache) *RedisRegistry {
	return &RedisRegistry{cache: c}
}

func (r *RedisRegistry) SetProgress(ctx context.Context, jobID uuid.UUID, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if err := r.cache.Set(ctx, JobProgressKey(jobID), []byte(strconv.Itoa(percent)), registryTTL); err != nil {
		slog.Warn("registry set progress", "job_id", jobID, "error", err)
	}
}

func (r *RedisRegistry) Progress(ctx context.Context, jobID uuid.UUID) int {
	data, ok, err := r.cache.Get(ctx, JobProgressKey(jobID))
	if err != nil {
		slog.Warn("registry get progress", "job_id", jobID, "error", err)
		return 0
	}
	if !ok {
		return 0
	}
	percent, err := strconv.Atoi(string(data))
	if err != nil {
		return 0
	}
	return percent
}

func (r *RedisRegistry) RequestCancel(ctx context.Context, jobID uuid.UUID) {
	stamp := time.Now().UTC().Format(time.RFC3339Nano)
	if err := r.cache.Set(ctx, JobCancelKey(jobID), []byte(stamp), registryTTL); err != nil {
		slog.Warn("registry request cancel", "job_id", jobID, "error", err)
	}
}

func (r *RedisRegistry) Cancelled(ctx context.Context, jobID uuid.UUID) bool {
	_, ok, err := r.cache.Get(ctx, JobCancelKey(jobID))
	if err != nil {
		slog.Warn("registry get cancel", "job_id", jobID, "error", err)
		return false
	}
	return ok
}

func (r *RedisRegistry) Clear(ctx context.Context, jobID uuid.UUID) {
	if err := r.cache.Delete(ctx, JobProgressKey(jobID)); err != nil {
		slog.Warn("registry clear progress", "job_id", jobID, "error", err)
	}
	if err := r.cache.Delete(ctx, JobCancelKey(jobID)); err != nil {
		slog.Warn("registry clear cancel", "job_id", jobID, "error", err)
	}
}
