package models

import (
	"time"

	"github.com/google/uuid"
)

// Asset is an inventory entry the platform tracks. The CRUD surface for
// assets lives elsewhere; the orchestrator only reads them to resolve scan
// targets and build reports.
type Asset struct {
	ID          uuid.UUID `db:"id"          json:"id"`
	TenantID    uuid.UUID `db:"tenant_id"   json:"tenant_id"`
	Name        string    `db:"name"        json:"name"`
	Hostname    string    `db:"hostname"    json:"hostname"`
	IPAddress   string    `db:"ip_address"  json:"ip_address"`
	Kind        string    `db:"kind"        json:"kind"`
	Criticality string    `db:"criticality" json:"criticality"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"  json:"updated_at"`
}

// Address returns the scan address for the asset: IP first, then hostname,
// then the display name.
func (a *Asset) Address() string {
	if a.IPAddress != "" {
		return a.IPAddress
	}
	if a.Hostname != "" {
		return a.Hostname
	}
	return a.Name
}

// Vulnerability is an open vulnerability record attributed to an asset.
type Vulnerability struct {
	ID        uuid.UUID  `db:"id"         json:"id"`
	TenantID  uuid.UUID  `db:"tenant_id"  json:"tenant_id"`
	AssetID   *uuid.UUID `db:"asset_id"   json:"asset_id,omitempty"`
	Title     string     `db:"title"      json:"title"`
	Severity  string     `db:"severity"   json:"severity"`
	Status    string     `db:"status"     json:"status"`
	CVE       string     `db:"cve"        json:"cve,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// ComplianceControl is a control definition evaluated during compliance scans.
type ComplianceControl struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	TenantID  uuid.UUID `db:"tenant_id"  json:"tenant_id"`
	Framework string    `db:"framework"  json:"framework"`
	ControlID string    `db:"control_id" json:"control_id"`
	Title     string    `db:"title"      json:"title"`
	Enabled   bool      `db:"enabled"    json:"enabled"`
	Passing   bool      `db:"passing"    json:"passing"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
