package tasks

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/priyankraghav/sentra/pkg/models"
)

// ControlReader is the slice of the store the compliance scanner needs.
type ControlReader interface {
	ListEnabledControls(ctx context.Context, tenantID uuid.UUID) ([]*models.ComplianceControl, error)
}

// ComplianceScanner evaluates the tenant's enabled compliance controls
// against a target. Failing controls become medium-severity findings.
type ComplianceScanner struct {
	store ControlReader
}

func NewComplianceScanner(store ControlReader) *ComplianceScanner {
	return &ComplianceScanner{store: store}
}

func (s *ComplianceScanner) Name() string { return "compliance" }

func (s *ComplianceScanner) Execute(ctx context.Context, tenantID uuid.UUID, target Target) (Result, error) {
	controls, err := s.store.ListEnabledControls(ctx, tenantID)
	if err != nil {
		return Result{}, fmt.Errorf("load compliance controls: %w", err)
	}

	var findings []models.Finding
	for _, c := range controls {
		if c.Passing {
			continue
		}
		findings = append(findings, models.Finding{
			Title:    fmt.Sprintf("Control %s/%s not satisfied", c.Framework, c.ControlID),
			Severity: models.SeverityMedium,
			Detail:   c.Title,
		})
	}
	return Result{Status: models.TargetStatusOK, Findings: findings}, nil
}
