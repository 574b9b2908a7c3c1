package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/priyankraghav/sentra/pkg/models"
)

// ReportReader is the slice of the store report builders need.
type ReportReader interface {
	ListAssets(ctx context.Context, tenantID uuid.UUID) ([]*models.Asset, error)
	ListOpenVulnerabilitiesForAsset(ctx context.Context, tenantID uuid.UUID, assetID uuid.UUID) ([]*models.Vulnerability, error)
	CountVulnerabilitiesBySeverity(ctx context.Context, tenantID uuid.UUID) (map[string]int, error)
	ListEnabledControls(ctx context.Context, tenantID uuid.UUID) ([]*models.ComplianceControl, error)
}

// ReportBuilder renders one report subtype into a JSON artifact. The target's
// address names the report section being built; the artifact size is reported
// through Result.OutputBytes.
type ReportBuilder struct {
	store   ReportReader
	subtype string
}

func NewReportBuilder(store ReportReader, subtype string) *ReportBuilder {
	return &ReportBuilder{store: store, subtype: subtype}
}

func (b *ReportBuilder) Name() string { return "report:" + b.subtype }

func (b *ReportBuilder) Execute(ctx context.Context, tenantID uuid.UUID, _ Target) (Result, error) {
	var body any
	var err error

	switch b.subtype {
	case models.ReportTypeAssets:
		body, err = b.assetInventory(ctx, tenantID)
	case models.ReportTypeVulnerabilities:
		body, err = b.vulnerabilitySummary(ctx, tenantID)
	case models.ReportTypeRisks:
		body, err = b.riskRegister(ctx, tenantID)
	case models.ReportTypeCompliance:
		body, err = b.complianceStatus(ctx, tenantID)
	default:
		return Result{}, fmt.Errorf("unknown report subtype %q", b.subtype)
	}
	if err != nil {
		return Result{}, err
	}

	artifact, err := json.Marshal(map[string]any{
		"report":       b.subtype,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"body":         body,
	})
	if err != nil {
		return Result{}, fmt.Errorf("render %s report: %w", b.subtype, err)
	}

	return Result{Status: models.TargetStatusOK, OutputBytes: len(artifact)}, nil
}

func (b *ReportBuilder) assetInventory(ctx context.Context, tenantID uuid.UUID) (any, error) {
	assets, err := b.store.ListAssets(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	byKind := make(map[string]int)
	byCriticality := make(map[string]int)
	for _, a := range assets {
		byKind[a.Kind]++
		byCriticality[a.Criticality]++
	}
	return map[string]any{
		"total":          len(assets),
		"by_kind":        byKind,
		"by_criticality": byCriticality,
		"assets":         assets,
	}, nil
}

func (b *ReportBuilder) vulnerabilitySummary(ctx context.Context, tenantID uuid.UUID) (any, error) {
	counts, err := b.store.CountVulnerabilitiesBySeverity(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("count vulnerabilities: %w", err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return map[string]any{
		"open_total":  total,
		"by_severity": counts,
	}, nil
}

// riskRegister ranks assets by criticality and their open vulnerability load.
type riskEntry struct {
	AssetID     uuid.UUID `json:"asset_id"`
	Name        string    `json:"name"`
	Criticality string    `json:"criticality"`
	OpenVulns   int       `json:"open_vulns"`
}

func (b *ReportBuilder) riskRegister(ctx context.Context, tenantID uuid.UUID) (any, error) {
	assets, err := b.store.ListAssets(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	entries := make([]riskEntry, 0, len(assets))
	for _, a := range assets {
		vulns, err := b.store.ListOpenVulnerabilitiesForAsset(ctx, tenantID, a.ID)
		if err != nil {
			return nil, fmt.Errorf("list vulnerabilities for %s: %w", a.Name, err)
		}
		entries = append(entries, riskEntry{
			AssetID:     a.ID,
			Name:        a.Name,
			Criticality: a.Criticality,
			OpenVulns:   len(vulns),
		})
	}
	return map[string]any{"entries": entries}, nil
}

func (b *ReportBuilder) complianceStatus(ctx context.Context, tenantID uuid.UUID) (any, error) {
	controls, err := b.store.ListEnabledControls(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list controls: %w", err)
	}

	passing := 0
	for _, c := range controls {
		if c.Passing {
			passing++
		}
	}
	return map[string]any{
		"enabled":  len(controls),
		"passing":  passing,
		"failing":  len(controls) - passing,
		"controls": controls,
	}, nil
}
