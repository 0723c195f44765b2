package sqlite

// Schema defines the SQLite database schema
const Schema = `
-- Published reports, one row per cycle
CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	generated_at TIMESTAMP NOT NULL,
	score INTEGER NOT NULL,
	total_groups INTEGER NOT NULL,
	compliant_groups INTEGER NOT NULL,
	total_violations INTEGER NOT NULL,
	critical_count INTEGER NOT NULL,
	warning_count INTEGER NOT NULL,
	offline_count INTEGER NOT NULL DEFAULT 0,
	conflict_count INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	report_json TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_reports_generated_at ON reports(generated_at DESC);

-- Violations audit table
CREATE TABLE IF NOT EXISTS violations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	report_id TEXT NOT NULL,
	rule TEXT NOT NULL,
	service TEXT NOT NULL,
	project_id TEXT NOT NULL,
	project_name TEXT NOT NULL,
	severity TEXT NOT NULL,
	message TEXT NOT NULL,
	snapshot_json TEXT NOT NULL,
	generated_at TIMESTAMP NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (report_id) REFERENCES reports(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_violations_report_id ON violations(report_id);
CREATE INDEX IF NOT EXISTS idx_violations_service_project ON violations(service, project_id);
CREATE INDEX IF NOT EXISTS idx_violations_severity ON violations(severity);
CREATE INDEX IF NOT EXISTS idx_violations_generated_at ON violations(generated_at DESC);
`
