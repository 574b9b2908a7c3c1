package tasks

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/priyankraghav/sentra/pkg/models"
)

// VulnerabilityReader is the slice of the store the vulnerability scanner needs.
type VulnerabilityReader interface {
	ListOpenVulnerabilitiesForAsset(ctx context.Context, tenantID uuid.UUID, assetID uuid.UUID) ([]*models.Vulnerability, error)
}

// VulnerabilityScanner surfaces a target asset's open vulnerability records as
// findings. Literal endpoints with no asset reference produce no findings.
type VulnerabilityScanner struct {
	store VulnerabilityReader
}

func NewVulnerabilityScanner(store VulnerabilityReader) *VulnerabilityScanner {
	return &VulnerabilityScanner{store: store}
}

func (s *VulnerabilityScanner) Name() string { return "vulnerability" }

func (s *VulnerabilityScanner) Execute(ctx context.Context, tenantID uuid.UUID, target Target) (Result, error) {
	if target.AssetID == nil {
		return Result{Status: models.TargetStatusOK}, nil
	}

	vulns, err := s.store.ListOpenVulnerabilitiesForAsset(ctx, tenantID, *target.AssetID)
	if err != nil {
		return Result{}, fmt.Errorf("lookup vulnerabilities for %s: %w", target.Address, err)
	}

	findings := make([]models.Finding, 0, len(vulns))
	for _, v := range vulns {
		detail := v.CVE
		if detail == "" {
			detail = target.Address
		}
		findings = append(findings, models.Finding{
			Title:    v.Title,
			Severity: v.Severity,
			Detail:   detail,
		})
	}
	return Result{Status: models.TargetStatusOK, Findings: findings}, nil
}
