package report

import (
	"time"

	"github.com/samijaber1/tiergate/internal/eval"
	"github.com/samijaber1/tiergate/internal/policy"
	"github.com/samijaber1/tiergate/internal/tier"
)

// ComplianceReport is the result of one evaluation cycle. It is built
// wholesale and never modified after publication.
type ComplianceReport struct {
	ID                  string               `json:"id"`
	Groups              []*eval.ServiceGroup `json:"groups"`
	Violations          []policy.Violation   `json:"violations"`
	TotalViolations     int                  `json:"totalViolations"`
	CriticalCount       int                  `json:"criticalCount"`
	WarningCount        int                  `json:"warningCount"`
	CompliantGroupCount int                  `json:"compliantGroupCount"`
	TotalGroupCount     int                  `json:"totalGroupCount"`
	Score               int                  `json:"score"`
	ObservationCount    int                  `json:"observationCount"`
	OfflineCount        int                  `json:"offlineCount"`
	Conflicts           []eval.TierConflict  `json:"conflicts,omitempty"`
	GeneratedAt         time.Time            `json:"generatedAt"`
	DurationMs          int64                `json:"durationMs"`
}

// Summary is the count-only view of a report
type Summary struct {
	ID                  string    `json:"id"`
	TotalViolations     int       `json:"totalViolations"`
	CriticalCount       int       `json:"criticalCount"`
	WarningCount        int       `json:"warningCount"`
	CompliantGroupCount int       `json:"compliantGroupCount"`
	TotalGroupCount     int       `json:"totalGroupCount"`
	Score               int       `json:"score"`
	OfflineCount        int       `json:"offlineCount"`
	ConflictCount       int       `json:"conflictCount"`
	GeneratedAt         time.Time `json:"generatedAt"`
}

// AbsentMarker is shown in matrix cells for tiers without an observation
const AbsentMarker = "-"

// Column is a matrix column header
type Column struct {
	Tier  tier.Tier `json:"tier"`
	Label string    `json:"label"`
}

// Cell is one tier of a matrix row
type Cell struct {
	Tier    tier.Tier   `json:"tier"`
	Version string      `json:"version"`
	Status  eval.Status `json:"status,omitempty"`
	Present bool        `json:"present"`
}

// Row is the display projection of one service group
type Row struct {
	ServiceName   string          `json:"serviceName"`
	ProjectID     string          `json:"projectId"`
	ProjectName   string          `json:"projectName"`
	Cells         []Cell          `json:"cells"`
	HasViolation  bool            `json:"hasViolation"`
	WorstSeverity policy.Severity `json:"worstSeverity,omitempty"`
}

// Matrix is the per-tier table of all service groups
type Matrix struct {
	Columns     []Column  `json:"columns"`
	Rows        []Row     `json:"rows"`
	GeneratedAt time.Time `json:"generatedAt"`
}
