package storage

import (
	"time"

	"github.com/samijaber1/tiergate/internal/report"
	"github.com/samijaber1/tiergate/internal/tier"
)

// AuditStorage defines the interface for persisting published reports
type AuditStorage interface {
	// StoreReport persists a report summary and its violations
	StoreReport(r *report.ComplianceReport) error

	// QueryAudit retrieves violation records with optional filtering
	QueryAudit(filter AuditFilter) ([]AuditRecord, error)

	// ListReports returns report summaries, newest first
	ListReports(limit int) ([]report.Summary, error)

	// GetLatestReport retrieves the most recently generated report
	GetLatestReport() (*report.ComplianceReport, error)

	// PruneBefore deletes reports generated before cutoff, with their violations
	PruneBefore(cutoff time.Time) (int64, error)

	// Close closes the storage connection
	Close() error
}

// AuditFilter defines filtering options for audit queries
type AuditFilter struct {
	ReportID  string
	Service   string
	ProjectID string
	Severity  string // critical, warning
	Rule      string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}

// AuditRecord is one stored violation
type AuditRecord struct {
	ID          int64
	ReportID    string
	Rule        string
	Service     string
	ProjectID   string
	ProjectName string
	Severity    string
	Message     string
	Snapshot    map[tier.Tier]string
	GeneratedAt time.Time
	CreatedAt   time.Time
}
