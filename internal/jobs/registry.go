package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry tracks the ephemeral runtime state of active jobs: live progress
// percentages and cancellation flags. Entries exist only while a job runs and
// are cleared on every exit path; readers get zero values for unknown ids, so
// polling between submission and runner start is safe.
//
// The in-process implementation below suits single-instance deployments; a
// Redis-backed implementation lives in internal/cache for multi-instance ones.
type Registry interface {
	SetProgress(ctx context.Context, jobID uuid.UUID, percent int)
	Progress(ctx context.Context, jobID uuid.UUID) int
	RequestCancel(ctx context.Context, jobID uuid.UUID)
	Cancelled(ctx context.Context, jobID uuid.UUID) bool
	Clear(ctx context.Context, jobID uuid.UUID)
}

type cancelToken struct {
	requestedAt time.Time
}

// MemoryRegistry is the in-process Registry backed by mutex-guarded maps.
type MemoryRegistry struct {
	mu       sync.Mutex
	progress map[uuid.UUID]int
	cancels  map[uuid.UUID]cancelToken
}

// NewMemoryRegistry creates an empty MemoryRegistry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		progress: make(map[uuid.UUID]int),
		cancels:  make(map[uuid.UUID]cancelToken),
	}
}

func (r *MemoryRegistry) SetProgress(_ context.Context, jobID uuid.UUID, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress[jobID] = percent
}

func (r *MemoryRegistry) Progress(_ context.Context, jobID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress[jobID]
}

func (r *MemoryRegistry) RequestCancel(_ context.Context, jobID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cancels[jobID]; !ok {
		r.cancels[jobID] = cancelToken{requestedAt: time.Now().UTC()}
	}
}

func (r *MemoryRegistry) Cancelled(_ context.Context, jobID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cancels[jobID]
	return ok
}

func (r *MemoryRegistry) Clear(_ context.Context, jobID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.progress, jobID)
	delete(r.cancels, jobID)
}
