package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/samijaber1/tiergate/internal/report"
	"github.com/samijaber1/tiergate/internal/storage"
)

// Store implements AuditStorage using SQLite
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite storage with the given database path
func NewStore(dbPath string) (*Store, error) {
	// Foreign keys are per connection; the DSN applies them to every
	// connection the pool opens.
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run migrations
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// StoreReport persists a report summary row and one row per violation in a
// single transaction.
func (s *Store) StoreReport(r *report.ComplianceReport) error {
	reportJSON, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	generatedAt := r.GeneratedAt.UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO reports (
			id, generated_at, score, total_groups, compliant_groups, total_violations,
			critical_count, warning_count, offline_count, conflict_count, duration_ms, report_json
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		generatedAt,
		r.Score,
		r.TotalGroupCount,
		r.CompliantGroupCount,
		r.TotalViolations,
		r.CriticalCount,
		r.WarningCount,
		r.OfflineCount,
		len(r.Conflicts),
		r.DurationMs,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO violations (
			report_id, rule, service, project_id, project_name, severity, message, snapshot_json, generated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare violation insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range r.Violations {
		snapshotJSON, err := json.Marshal(v.Snapshot)
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot: %w", err)
		}

		_, err = stmt.Exec(
			r.ID,
			string(v.Rule),
			v.ServiceName,
			v.ProjectID,
			v.ProjectName,
			string(v.Severity),
			v.Message,
			string(snapshotJSON),
			generatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to store violation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}

	return nil
}

// QueryAudit retrieves violation records with optional filtering
func (s *Store) QueryAudit(filter storage.AuditFilter) ([]storage.AuditRecord, error) {
	query := `
		SELECT id, report_id, rule, service, project_id, project_name, severity, message,
		       snapshot_json, generated_at, created_at
		FROM violations
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.ReportID != "" {
		query += " AND report_id = ?"
		args = append(args, filter.ReportID)
	}

	if filter.Service != "" {
		query += " AND service = ?"
		args = append(args, filter.Service)
	}

	if filter.ProjectID != "" {
		query += " AND project_id = ?"
		args = append(args, filter.ProjectID)
	}

	if filter.Severity != "" {
		query += " AND severity = ?"
		args = append(args, filter.Severity)
	}

	if filter.Rule != "" {
		query += " AND rule = ?"
		args = append(args, filter.Rule)
	}

	if filter.StartTime != nil {
		query += " AND generated_at >= ?"
		args = append(args, filter.StartTime.UTC())
	}

	if filter.EndTime != nil {
		query += " AND generated_at <= ?"
		args = append(args, filter.EndTime.UTC())
	}

	query += " ORDER BY generated_at DESC, id ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else {
		query += " LIMIT 100" // Default limit
	}

	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []storage.AuditRecord
	for rows.Next() {
		var record storage.AuditRecord
		var snapshotJSON string

		err := rows.Scan(
			&record.ID,
			&record.ReportID,
			&record.Rule,
			&record.Service,
			&record.ProjectID,
			&record.ProjectName,
			&record.Severity,
			&record.Message,
			&snapshotJSON,
			&record.GeneratedAt,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if err := json.Unmarshal([]byte(snapshotJSON), &record.Snapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// ListReports returns report summaries, newest first
func (s *Store) ListReports(limit int) ([]report.Summary, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`
		SELECT id, generated_at, score, total_groups, compliant_groups, total_violations,
		       critical_count, warning_count, offline_count, conflict_count
		FROM reports
		ORDER BY generated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var summaries []report.Summary
	for rows.Next() {
		var sum report.Summary
		err := rows.Scan(
			&sum.ID,
			&sum.GeneratedAt,
			&sum.Score,
			&sum.TotalGroupCount,
			&sum.CompliantGroupCount,
			&sum.TotalViolations,
			&sum.CriticalCount,
			&sum.WarningCount,
			&sum.OfflineCount,
			&sum.ConflictCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return summaries, nil
}

// GetLatestReport retrieves the most recently generated report, or nil when
// none has been stored yet.
func (s *Store) GetLatestReport() (*report.ComplianceReport, error) {
	var reportJSON string
	err := s.db.QueryRow(`
		SELECT report_json FROM reports ORDER BY generated_at DESC LIMIT 1
	`).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest report: %w", err)
	}

	var r report.ComplianceReport
	if err := json.Unmarshal([]byte(reportJSON), &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return &r, nil
}

// PruneBefore deletes reports (and their violations) generated before cutoff
func (s *Store) PruneBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM reports WHERE generated_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune reports: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
