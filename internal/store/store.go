package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/priyankraghav/sentra/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")
var ErrInvalidTransition = errors.New("invalid job status transition")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error
	GetDefaultTenant(ctx context.Context) (*models.Tenant, error)

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, tenantID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) error

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, int, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error
	DeleteJob(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) error

	ListAssetsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*models.Asset, error)
	ListAssets(ctx context.Context, tenantID uuid.UUID) ([]*models.Asset, error)
	ListOpenVulnerabilitiesForAsset(ctx context.Context, tenantID uuid.UUID, assetID uuid.UUID) ([]*models.Vulnerability, error)
	CountVulnerabilitiesBySeverity(ctx context.Context, tenantID uuid.UUID) (map[string]int, error)
	ListEnabledControls(ctx context.Context, tenantID uuid.UUID) ([]*models.ComplianceControl, error)
}

// JobFilter narrows ListJobs. Zero values mean "no constraint".
type JobFilter struct {
	TenantID uuid.UUID
	Kind     string
	Status   string
	Since    time.Time
	Until    time.Time
	Page     int
	Limit    int
}

// JobUpdate collects the optional fields of a status update. Fakes apply the
// same options the real store does.
type JobUpdate struct {
	ErrorMessage *string
	Result       *models.ResultSummary
	Progress     *int
}

type JobUpdateOption func(*JobUpdate)

func WithErrorMessage(msg string) JobUpdateOption {
	return func(p *JobUpdate) {
		p.ErrorMessage = &msg
	}
}

func WithResult(result *models.ResultSummary) JobUpdateOption {
	return func(p *JobUpdate) {
		p.Result = result
	}
}

// WithProgress persists the final progress percentage alongside a terminal
// status, so the outcome survives the ephemeral registry entry being cleared.
func WithProgress(percent int) JobUpdateOption {
	return func(p *JobUpdate) {
		p.Progress = &percent
	}
}
