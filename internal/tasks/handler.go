// Package tasks holds the pluggable handlers that do the per-target work of
// scan and report jobs. Handlers are selected by job kind and subtype; the
// orchestrator stays ignorant of what any handler actually does.
package tasks

import (
	"context"

	"github.com/google/uuid"
	"github.com/priyankraghav/sentra/pkg/models"
)

// Target is one resolved unit of work: a literal endpoint, or an asset
// reference resolved to its address at run time. AssetID is kept for result
// attribution.
type Target struct {
	Address string
	AssetID *uuid.UUID
}

// Result is the outcome of one handler execution against one target.
type Result struct {
	Status      string
	Findings    []models.Finding
	OutputBytes int
}

// Handler executes one unit of scan or report work against a target.
// Business-level outcomes (a clean target, a failing control, an unreachable
// host) are expressed through Result, not errors; a returned error means the
// handler itself could not run and is downgraded by the runner to a finding
// of severity "error" rather than failing the job.
type Handler interface {
	Name() string
	Execute(ctx context.Context, tenantID uuid.UUID, target Target) (Result, error)
}
