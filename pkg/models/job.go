package models

import (
	"time"

	"github.com/google/uuid"
)

// Job kinds.
const (
	JobKindScan   = "scan"
	JobKindReport = "report"
)

// Scan subtypes.
const (
	ScanTypeNetwork       = "network"
	ScanTypeVulnerability = "vulnerability"
	ScanTypeCompliance    = "compliance"
	ScanTypeFull          = "full"
)

// Report subtypes.
const (
	ReportTypeAssets          = "assets"
	ReportTypeVulnerabilities = "vulnerabilities"
	ReportTypeRisks           = "risks"
	ReportTypeCompliance      = "compliance"
)

// Job statuses. Transitions are one-directional: pending -> running ->
// {completed, failed, cancelled}. Terminal states are absorbing.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// TerminalStatus reports whether a job status is absorbing.
func TerminalStatus(status string) bool {
	switch status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// JobConfig is the configuration a job was submitted with. It is captured at
// submission time and immutable afterwards; asset references are resolved to
// addresses when the job starts running, not here.
type JobConfig struct {
	Endpoints []string    `json:"endpoints,omitempty"`
	AssetIDs  []uuid.UUID `json:"asset_ids,omitempty"`
	Ports     []int       `json:"ports,omitempty"`
	Format    string      `json:"format,omitempty"`
}

// Job tracks one asynchronous scan or report-generation request end to end.
// Submission returns the job id immediately; clients poll
// GET /api/v1/jobs/{job_id} until the status is terminal.
type Job struct {
	ID           uuid.UUID      `db:"id"            json:"id"`
	TenantID     uuid.UUID      `db:"tenant_id"     json:"tenant_id"`
	Kind         string         `db:"kind"          json:"kind"`
	Subtype      string         `db:"subtype"       json:"subtype"`
	Status       string         `db:"status"        json:"status"`
	Progress     int            `db:"progress"      json:"progress"`
	Config       JobConfig      `db:"config"        json:"config"`
	Result       *ResultSummary `db:"result"        json:"result,omitempty"`
	ErrorMessage *string        `db:"error_message" json:"error_message,omitempty"`
	CreatedBy    uuid.UUID      `db:"created_by"    json:"created_by"`
	StartedAt    *time.Time     `db:"started_at"    json:"started_at,omitempty"`
	CompletedAt  *time.Time     `db:"completed_at"  json:"completed_at,omitempty"`
	DurationSecs *int64         `db:"duration_secs" json:"duration_secs,omitempty"`
	CreatedAt    time.Time      `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"    json:"updated_at"`
}
