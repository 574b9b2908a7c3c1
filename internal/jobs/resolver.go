package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/priyankraghav/sentra/internal/tasks"
	"github.com/priyankraghav/sentra/pkg/models"
)

// AssetResolver expands asset references into concrete assets.
type AssetResolver interface {
	ListAssetsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*models.Asset, error)
}

// ResolveTargets expands a job configuration into an ordered target list:
// literal endpoints first, in the order given, then one target per resolved
// asset reference, in the order the store returns them. Asset addresses are
// looked up now rather than at submission time, so a stale address in an old
// configuration never leaks into a new run. Returns ErrEmptyTargetSet when
// nothing resolves; callers must check this before creating a job record.
func ResolveTargets(ctx context.Context, assets AssetResolver, tenantID uuid.UUID, cfg models.JobConfig) ([]tasks.Target, error) {
	var targets []tasks.Target

	for _, ep := range cfg.Endpoints {
		ep = strings.TrimSpace(ep)
		if ep == "" {
			continue
		}
		targets = append(targets, tasks.Target{Address: ep})
	}

	if len(cfg.AssetIDs) > 0 {
		resolved, err := assets.ListAssetsByIDs(ctx, tenantID, cfg.AssetIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve assets: %w", err)
		}
		for _, a := range resolved {
			id := a.ID
			targets = append(targets, tasks.Target{Address: a.Address(), AssetID: &id})
		}
	}

	if len(targets) == 0 {
		return nil, ErrEmptyTargetSet
	}
	return targets, nil
}
