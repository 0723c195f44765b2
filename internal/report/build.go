package report

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/samijaber1/tiergate/internal/eval"
	"github.com/samijaber1/tiergate/internal/policy"
)

// Build evaluates every group and aggregates the violations into a report.
// Violations keep group evaluation order.
func Build(groups []*eval.ServiceGroup, engine *policy.Engine, now time.Time) *ComplianceReport {
	r := &ComplianceReport{
		ID:              uuid.NewString(),
		Groups:          groups,
		Violations:      []policy.Violation{},
		TotalGroupCount: len(groups),
		GeneratedAt:     now,
	}

	nonCompliant := 0
	for _, g := range groups {
		violations := engine.Evaluate(g)
		if len(violations) > 0 {
			nonCompliant++
		}
		r.Violations = append(r.Violations, violations...)

		r.ObservationCount += len(g.Observations)
		for _, obs := range g.Observations {
			if !obs.Online() {
				r.OfflineCount++
			}
		}
		r.Conflicts = append(r.Conflicts, g.Conflicts...)
	}

	for _, v := range r.Violations {
		switch v.Severity {
		case policy.SeverityCritical:
			r.CriticalCount++
		case policy.SeverityWarning:
			r.WarningCount++
		}
	}

	r.TotalViolations = len(r.Violations)
	r.CompliantGroupCount = r.TotalGroupCount - nonCompliant
	r.Score = Score(r.CompliantGroupCount, r.TotalGroupCount)

	return r
}

// Score is the rounded percentage of compliant groups. An empty fleet is
// vacuously compliant.
func Score(compliant, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(100 * float64(compliant) / float64(total)))
}

// Summary returns the count-only view of the report
func (r *ComplianceReport) Summary() Summary {
	return Summary{
		ID:                  r.ID,
		TotalViolations:     r.TotalViolations,
		CriticalCount:       r.CriticalCount,
		WarningCount:        r.WarningCount,
		CompliantGroupCount: r.CompliantGroupCount,
		TotalGroupCount:     r.TotalGroupCount,
		Score:               r.Score,
		OfflineCount:        r.OfflineCount,
		ConflictCount:       len(r.Conflicts),
		GeneratedAt:         r.GeneratedAt,
	}
}

// ViolationsFor returns the violations raised for one group
func (r *ComplianceReport) ViolationsFor(key eval.GroupKey) []policy.Violation {
	var out []policy.Violation
	for _, v := range r.Violations {
		if v.Key() == key {
			out = append(out, v)
		}
	}
	return out
}
