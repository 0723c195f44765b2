package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samijaber1/tiergate/internal/eval"
	"github.com/samijaber1/tiergate/internal/tier"
)

// makeGroup builds a group from tier -> version pairs; an "offline:" prefix
// marks the observation as offline.
func makeGroup(versions map[tier.Tier]string) *eval.ServiceGroup {
	g := &eval.ServiceGroup{
		Key:          eval.GroupKey{ServiceName: "ledger", ProjectID: "pay"},
		ProjectName:  "Payments",
		Observations: make(map[tier.Tier]eval.Observation),
	}
	for t, v := range versions {
		obs := eval.Observation{ServiceName: "ledger", ProjectID: "pay", Tier: t, Version: v, Status: eval.StatusOnline}
		if v == "offline" {
			obs.Status = eval.StatusOffline
			obs.Version = eval.PlaceholderVersion
		}
		g.Observations[t] = obs
	}
	return g
}

func rulesOf(vs []Violation) []RuleID {
	var ids []RuleID
	for _, v := range vs {
		ids = append(ids, v.Rule)
	}
	return ids
}

func TestEngine_Evaluate(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name     string
		versions map[tier.Tier]string
		expected []RuleID
	}{
		{
			name:     "prod ahead of oat, no uat",
			versions: map[tier.Tier]string{tier.OAT: "1.2.0", tier.Prod: "1.3.0"},
			expected: []RuleID{RuleProdAheadOfOAT},
		},
		{
			name:     "oat ahead of uat, no prod",
			versions: map[tier.Tier]string{tier.OAT: "2.0.0", tier.UAT: "1.0.0"},
			expected: []RuleID{RuleOATAheadOfUAT},
		},
		{
			name:     "prod alone",
			versions: map[tier.Tier]string{tier.Prod: "1.0.0"},
			expected: []RuleID{RuleProdWithoutUAT},
		},
		{
			name:     "dev only",
			versions: map[tier.Tier]string{tier.Dev: "9.9.9"},
			expected: nil,
		},
		{
			name:     "healthy progression",
			versions: map[tier.Tier]string{tier.Dev: "1.4.0", tier.UAT: "1.3.0", tier.OAT: "1.3.0", tier.Prod: "1.2.0"},
			expected: nil,
		},
		{
			name:     "equal versions with padding",
			versions: map[tier.Tier]string{tier.UAT: "1.2", tier.OAT: "1.2.0", tier.Prod: "1.2.0.0"},
			expected: nil,
		},
		{
			name:     "prod ahead of both acceptance tiers",
			versions: map[tier.Tier]string{tier.UAT: "1.0.0", tier.OAT: "1.1.0", tier.Prod: "2.0.0"},
			expected: []RuleID{RuleProdAheadOfOAT, RuleProdAheadOfUAT, RuleOATAheadOfUAT},
		},
		{
			name:     "prod ahead of uat only",
			versions: map[tier.Tier]string{tier.UAT: "1.0.0", tier.Prod: "1.0.1"},
			expected: []RuleID{RuleProdAheadOfUAT},
		},
		{
			name:     "offline uat is still deployed",
			versions: map[tier.Tier]string{tier.UAT: "offline", tier.Prod: "2.0.0"},
			expected: nil,
		},
		{
			name:     "offline oat is still deployed",
			versions: map[tier.Tier]string{tier.OAT: "offline", tier.Prod: "2.0.0"},
			expected: nil,
		},
		{
			name:     "offline uat skips comparisons",
			versions: map[tier.Tier]string{tier.UAT: "offline", tier.OAT: "3.0.0", tier.Prod: "2.0.0"},
			expected: nil,
		},
		{
			name:     "offline prod alone",
			versions: map[tier.Tier]string{tier.Prod: "offline"},
			expected: []RuleID{RuleProdWithoutUAT},
		},
		{
			name:     "offline prod skips prod rules",
			versions: map[tier.Tier]string{tier.UAT: "1.0.0", tier.Prod: "offline"},
			expected: nil,
		},
		{
			name:     "unknown tiers only are skipped",
			versions: map[tier.Tier]string{tier.Tier("staging"): "5.0.0"},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Evaluate(makeGroup(tt.versions))
			require.Equal(t, tt.expected, rulesOf(got))
		})
	}
}

func TestEngine_Severities(t *testing.T) {
	engine := NewEngine()

	critical := engine.Evaluate(makeGroup(map[tier.Tier]string{tier.OAT: "1.2.0", tier.Prod: "1.3.0"}))
	require.Len(t, critical, 1)
	require.Equal(t, SeverityCritical, critical[0].Severity)

	warning := engine.Evaluate(makeGroup(map[tier.Tier]string{tier.OAT: "2.0.0", tier.UAT: "1.0.0"}))
	require.Len(t, warning, 1)
	require.Equal(t, SeverityWarning, warning[0].Severity)

	prodOnly := engine.Evaluate(makeGroup(map[tier.Tier]string{tier.Prod: "1.0.0"}))
	require.Len(t, prodOnly, 1)
	require.Equal(t, SeverityWarning, prodOnly[0].Severity)
}

func TestEngine_ViolationCarriesSnapshot(t *testing.T) {
	engine := NewEngine()

	vs := engine.Evaluate(makeGroup(map[tier.Tier]string{tier.Dev: "1.4.0", tier.OAT: "1.2.0", tier.Prod: "1.3.0"}))
	require.Len(t, vs, 1)

	v := vs[0]
	require.Equal(t, "ledger", v.ServiceName)
	require.Equal(t, "pay", v.ProjectID)
	require.Equal(t, "Payments", v.ProjectName)
	require.Equal(t, eval.GroupKey{ServiceName: "ledger", ProjectID: "pay"}, v.Key())
	require.Equal(t, map[tier.Tier]string{tier.Dev: "1.4.0", tier.OAT: "1.2.0", tier.Prod: "1.3.0"}, v.Snapshot)
	require.NotContains(t, v.Snapshot, tier.UAT)
	require.Contains(t, v.Message, "1.3.0")
	require.Contains(t, v.Message, "1.2.0")
}

func TestEngine_SnapshotIncludesOfflineTiers(t *testing.T) {
	engine := NewEngine()

	vs := engine.Evaluate(makeGroup(map[tier.Tier]string{tier.UAT: "offline", tier.OAT: "1.2.0", tier.Prod: "1.3.0"}))
	require.Equal(t, []RuleID{RuleProdAheadOfOAT}, rulesOf(vs))
	require.Equal(t, map[tier.Tier]string{
		tier.UAT:  eval.PlaceholderVersion,
		tier.OAT:  "1.2.0",
		tier.Prod: "1.3.0",
	}, vs[0].Snapshot)
	require.NotContains(t, vs[0].Snapshot, tier.Dev)
}

func TestEngine_SnapshotsAreIndependent(t *testing.T) {
	engine := NewEngine()

	vs := engine.Evaluate(makeGroup(map[tier.Tier]string{tier.UAT: "1.0.0", tier.OAT: "1.1.0", tier.Prod: "2.0.0"}))
	require.Len(t, vs, 3)

	vs[0].Snapshot[tier.Prod] = "mutated"
	require.Equal(t, "2.0.0", vs[1].Snapshot[tier.Prod])
}

func TestEngine_NilGroup(t *testing.T) {
	require.Nil(t, NewEngine().Evaluate(nil))
}

func TestEngine_Rules(t *testing.T) {
	rules := NewEngine().Rules()
	require.Len(t, rules, 4)
	require.Equal(t, RuleProdAheadOfOAT, rules[0].ID)
	require.Equal(t, RuleProdWithoutUAT, rules[3].ID)
}
