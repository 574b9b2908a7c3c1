package tasks

import (
	"fmt"
	"time"

	"github.com/priyankraghav/sentra/pkg/models"
)

// Store combines the read-only slices of the data layer that handlers use.
type Store interface {
	VulnerabilityReader
	ControlReader
	ReportReader
}

// Deps carries the collaborators and defaults handlers are built from.
type Deps struct {
	Store        Store
	ProbeTimeout time.Duration
}

// NewHandlers returns the handler set for a job's kind and subtype. A full
// scan gets all three scan handlers; their outputs are concatenated per
// target by the runner. Unknown kinds or subtypes are an error.
func NewHandlers(kind, subtype string, cfg models.JobConfig, deps Deps) ([]Handler, error) {
	switch kind {
	case models.JobKindScan:
		switch subtype {
		case models.ScanTypeNetwork:
			return []Handler{NewNetworkScanner(cfg.Ports, deps.ProbeTimeout)}, nil
		case models.ScanTypeVulnerability:
			return []Handler{NewVulnerabilityScanner(deps.Store)}, nil
		case models.ScanTypeCompliance:
			return []Handler{NewComplianceScanner(deps.Store)}, nil
		case models.ScanTypeFull:
			return []Handler{
				NewNetworkScanner(cfg.Ports, deps.ProbeTimeout),
				NewVulnerabilityScanner(deps.Store),
				NewComplianceScanner(deps.Store),
			}, nil
		default:
			return nil, fmt.Errorf("unknown scan subtype %q", subtype)
		}
	case models.JobKindReport:
		switch subtype {
		case models.ReportTypeAssets, models.ReportTypeVulnerabilities,
			models.ReportTypeRisks, models.ReportTypeCompliance:
			return []Handler{NewReportBuilder(deps.Store, subtype)}, nil
		default:
			return nil, fmt.Errorf("unknown report subtype %q", subtype)
		}
	default:
		return nil, fmt.Errorf("unknown job kind %q", kind)
	}
}
