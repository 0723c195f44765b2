package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/samijaber1/tiergate/internal/eval"
	"github.com/samijaber1/tiergate/internal/policy"
	"github.com/samijaber1/tiergate/internal/tier"
)

func TestBuildMatrix(t *testing.T) {
	offline := observation("cards", "pay", tier.UAT, eval.PlaceholderVersion)
	offline.Status = eval.StatusOffline

	groups := eval.Group([]eval.Observation{
		observation("ledger", "pay", tier.OAT, "1.2.0"),
		observation("ledger", "pay", tier.Prod, "1.3.0"),
		observation("cards", "pay", tier.Dev, "2.0.0"),
		offline,
	})
	r := Build(groups, policy.NewEngine(), time.Now())
	violationsBefore := len(r.Violations)

	m := BuildMatrix(r)

	require.Len(t, m.Columns, 4)
	require.Equal(t, "Development", m.Columns[0].Label)
	require.Equal(t, tier.Prod, m.Columns[3].Tier)
	require.Equal(t, r.GeneratedAt, m.GeneratedAt)

	require.Len(t, m.Rows, 2)

	ledger := m.Rows[0]
	require.Equal(t, "ledger", ledger.ServiceName)
	require.True(t, ledger.HasViolation)
	require.Equal(t, policy.SeverityCritical, ledger.WorstSeverity)
	require.Equal(t, AbsentMarker, ledger.Cells[0].Version)
	require.False(t, ledger.Cells[0].Present)
	require.Equal(t, AbsentMarker, ledger.Cells[1].Version)
	require.Equal(t, "1.2.0", ledger.Cells[2].Version)
	require.Equal(t, "1.3.0", ledger.Cells[3].Version)
	require.Equal(t, eval.StatusOnline, ledger.Cells[3].Status)

	cards := m.Rows[1]
	require.False(t, cards.HasViolation)
	require.Empty(t, cards.WorstSeverity)
	require.Equal(t, "2.0.0", cards.Cells[0].Version)
	require.Equal(t, eval.PlaceholderVersion, cards.Cells[1].Version)
	require.Equal(t, eval.StatusOffline, cards.Cells[1].Status)
	require.True(t, cards.Cells[1].Present)

	// read-only projection
	require.Len(t, r.Violations, violationsBefore)
}

func TestBuildMatrix_WorstSeverityPrefersCritical(t *testing.T) {
	groups := eval.Group([]eval.Observation{
		observation("risk", "pay", tier.UAT, "1.0.0"),
		observation("risk", "pay", tier.OAT, "2.0.0"),
		observation("risk", "pay", tier.Prod, "3.0.0"),
	})
	r := Build(groups, policy.NewEngine(), time.Now())
	require.Len(t, r.Violations, 3)

	m := BuildMatrix(r)
	require.Equal(t, policy.SeverityCritical, m.Rows[0].WorstSeverity)
}

func TestBuildMatrix_NilReport(t *testing.T) {
	m := BuildMatrix(nil)
	require.Len(t, m.Columns, 4)
	require.Empty(t, m.Rows)
}
