package report

import (
	"github.com/samijaber1/tiergate/internal/eval"
	"github.com/samijaber1/tiergate/internal/policy"
	"github.com/samijaber1/tiergate/internal/tier"
)

// BuildMatrix projects every group of the report into a display row. The
// report is only read.
func BuildMatrix(r *ComplianceReport) Matrix {
	canonical := tier.Canonical()

	m := Matrix{
		Columns: make([]Column, 0, len(canonical)),
		Rows:    []Row{},
	}
	for _, t := range canonical {
		m.Columns = append(m.Columns, Column{Tier: t, Label: t.Label()})
	}

	if r == nil {
		return m
	}
	m.GeneratedAt = r.GeneratedAt

	worst := make(map[eval.GroupKey]policy.Severity)
	for _, v := range r.Violations {
		if cur, ok := worst[v.Key()]; !ok || cur != policy.SeverityCritical {
			worst[v.Key()] = v.Severity
		}
	}

	for _, g := range r.Groups {
		row := Row{
			ServiceName: g.Key.ServiceName,
			ProjectID:   g.Key.ProjectID,
			ProjectName: g.ProjectName,
			Cells:       make([]Cell, 0, len(canonical)),
		}

		for _, t := range canonical {
			cell := Cell{Tier: t, Version: AbsentMarker}
			if obs, ok := g.Get(t); ok {
				cell.Version = obs.Version
				cell.Status = obs.Status
				cell.Present = true
			}
			row.Cells = append(row.Cells, cell)
		}

		if sev, ok := worst[g.Key]; ok {
			row.HasViolation = true
			row.WorstSeverity = sev
		}

		m.Rows = append(m.Rows, row)
	}

	return m
}
