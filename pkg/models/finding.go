package models

// Finding severities. "error" marks a target-level handler failure that was
// downgraded to a finding instead of failing the whole job.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"
	SeverityError    = "error"
)

// Per-target outcomes. A clean target is "ok"; "unreachable" and "error" are
// distinguished so a target that failed to respond is never conflated with one
// that simply produced no findings.
const (
	TargetStatusOK          = "ok"
	TargetStatusUnreachable = "unreachable"
	TargetStatusError       = "error"
)

// Finding is a single observation produced by a task handler for one target.
type Finding struct {
	Title    string `json:"title"`
	Severity string `json:"severity"`
	Detail   string `json:"detail,omitempty"`
}

// SeverityCounts tallies findings by severity.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
	Error    int `json:"error"`
}

// Add accumulates another set of counts.
func (c *SeverityCounts) Add(other SeverityCounts) {
	c.Critical += other.Critical
	c.High += other.High
	c.Medium += other.Medium
	c.Low += other.Low
	c.Info += other.Info
	c.Error += other.Error
}

// Total returns the total number of findings across all severities.
func (c SeverityCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low + c.Info + c.Error
}

// Count increments the bucket for a severity. Unknown severities count as info.
func (c *SeverityCounts) Count(severity string) {
	switch severity {
	case SeverityCritical:
		c.Critical++
	case SeverityHigh:
		c.High++
	case SeverityMedium:
		c.Medium++
	case SeverityLow:
		c.Low++
	case SeverityError:
		c.Error++
	default:
		c.Info++
	}
}

// TargetResult records the outcome for one processed target.
type TargetResult struct {
	Address  string         `json:"address"`
	AssetID  string         `json:"asset_id,omitempty"`
	Status   string         `json:"status"`
	Findings []Finding      `json:"findings,omitempty"`
	Counts   SeverityCounts `json:"counts"`
}

// ResultSummary is the aggregated outcome of a completed job. Populated only
// when the job reaches the completed status.
type ResultSummary struct {
	TotalFindings int            `json:"total_findings"`
	Counts        SeverityCounts `json:"counts"`
	Targets       []TargetResult `json:"targets,omitempty"`
	OutputBytes   int            `json:"output_bytes,omitempty"`
}
