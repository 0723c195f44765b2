package api

import (
	"time"

	"github.com/samijaber1/tiergate/internal/eval"
	"github.com/samijaber1/tiergate/internal/policy"
	"github.com/samijaber1/tiergate/internal/report"
	"github.com/samijaber1/tiergate/internal/tier"
)

// RefreshRequest asks for a recomputation. With Wait the call blocks until
// the new report is published.
type RefreshRequest struct {
	Wait bool `json:"wait,omitempty"`
}

// RefreshResponse reports the outcome of a refresh request
type RefreshResponse struct {
	Accepted  bool            `json:"accepted"`
	Coalesced bool            `json:"coalesced,omitempty"`
	Summary   *report.Summary `json:"summary,omitempty"`
}

// AutoRefreshRequest toggles periodic recomputation
type AutoRefreshRequest struct {
	Enabled *bool `json:"enabled"`
}

// AutoRefreshResponse echoes the current auto-refresh setting
type AutoRefreshResponse struct {
	Enabled bool `json:"enabled"`
}

// ReportResponse wraps the current report with its freshness
type ReportResponse struct {
	Report    *report.ComplianceReport `json:"report"`
	UpdatedAt time.Time                `json:"updatedAt"`
	TTL       int                      `json:"ttl"` // seconds
	IsStale   bool                     `json:"isStale"`
}

// ViolationsResponse lists violations of the current report
type ViolationsResponse struct {
	ReportID   string             `json:"reportId"`
	Violations []policy.Violation `json:"violations"`
	Total      int                `json:"total"`
}

// GroupResponse is one service group with its violations
type GroupResponse struct {
	Key          eval.GroupKey                  `json:"key"`
	ProjectName  string                         `json:"projectName"`
	Observations map[tier.Tier]eval.Observation `json:"observations"`
	Violations   []policy.Violation             `json:"violations"`
	Compliant    bool                           `json:"compliant"`
}

// GroupsResponse lists every project's group for one service
type GroupsResponse struct {
	Service string          `json:"service"`
	Groups  []GroupResponse `json:"groups"`
}

// AuditRecordResponse represents a stored violation
type AuditRecordResponse struct {
	ID          int64             `json:"id"`
	ReportID    string            `json:"reportId"`
	Rule        string            `json:"rule"`
	Service     string            `json:"service"`
	ProjectID   string            `json:"projectId"`
	ProjectName string            `json:"projectName"`
	Severity    string            `json:"severity"`
	Message     string            `json:"message"`
	Snapshot    map[string]string `json:"snapshot"`
	GeneratedAt time.Time         `json:"generatedAt"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// AuditResponse represents audit query results
type AuditResponse struct {
	Records []AuditRecordResponse `json:"records"`
	Total   int                   `json:"total"`
}

// ReportsResponse lists archived report summaries
type ReportsResponse struct {
	Reports []report.Summary `json:"reports"`
	Total   int              `json:"total"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents readiness check response
type ReadyResponse struct {
	Ready    bool     `json:"ready"`
	ReportID string   `json:"reportId,omitempty"`
	Reasons  []string `json:"reasons,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}
