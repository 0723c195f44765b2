package eval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samijaber1/tiergate/internal/tier"
)

func obsFor(id, service, project, rawTier, version string) Observation {
	return Observation{
		InstanceID:  id,
		ServiceName: service,
		ProjectID:   project,
		ProjectName: project,
		Version:     version,
		Status:      StatusOnline,
		Tier:        tier.Normalize(rawTier),
		RawTier:     rawTier,
	}
}

func TestGroup_PartitionsByServiceAndProject(t *testing.T) {
	groups := Group([]Observation{
		obsFor("1", "ledger", "pay", "dev", "1.0.0"),
		obsFor("2", "cards", "pay", "prod", "2.0.0"),
		obsFor("3", "ledger", "pay", "prod", "0.9.0"),
		obsFor("4", "ledger", "risk", "prod", "0.9.0"),
	})

	require.Len(t, groups, 3)
	require.Equal(t, GroupKey{ServiceName: "ledger", ProjectID: "pay"}, groups[0].Key)
	require.Equal(t, GroupKey{ServiceName: "cards", ProjectID: "pay"}, groups[1].Key)
	require.Equal(t, GroupKey{ServiceName: "ledger", ProjectID: "risk"}, groups[2].Key)

	require.Len(t, groups[0].Observations, 2)
	v, ok := groups[0].Version(tier.Prod)
	require.True(t, ok)
	require.Equal(t, "0.9.0", v)
}

func TestGroup_LastWriteWinsAndRecordsConflict(t *testing.T) {
	groups := Group([]Observation{
		obsFor("first", "ledger", "pay", "prod-eu", "1.0.0"),
		obsFor("second", "ledger", "pay", "Production US", "1.1.0"),
	})

	require.Len(t, groups, 1)
	g := groups[0]

	kept, ok := g.Get(tier.Prod)
	require.True(t, ok)
	require.Equal(t, "second", kept.InstanceID)

	require.Len(t, g.Conflicts, 1)
	require.Equal(t, tier.Prod, g.Conflicts[0].Tier)
	require.Equal(t, "first", g.Conflicts[0].Dropped.InstanceID)
	require.Equal(t, "second", g.Conflicts[0].Kept.InstanceID)
}

func TestGroup_NormalizesMissingTier(t *testing.T) {
	o := obsFor("1", "ledger", "pay", "OAT", "1.0.0")
	o.Tier = ""

	groups := Group([]Observation{o})
	_, ok := groups[0].Get(tier.OAT)
	require.True(t, ok)
}

func TestServiceGroup_VersionIgnoresOffline(t *testing.T) {
	o := obsFor("1", "ledger", "pay", "uat", PlaceholderVersion)
	o.Status = StatusOffline

	g := Group([]Observation{o})[0]
	_, ok := g.Version(tier.UAT)
	require.False(t, ok)

	_, ok = g.Get(tier.UAT)
	require.True(t, ok)
}

func TestServiceGroup_HasKnownTier(t *testing.T) {
	unknown := Group([]Observation{obsFor("1", "ledger", "pay", "staging", "1.0.0")})[0]
	require.False(t, unknown.HasKnownTier())

	dev := Group([]Observation{obsFor("1", "ledger", "pay", "dev", "1.0.0")})[0]
	require.True(t, dev.HasKnownTier())
}

func TestGroup_Empty(t *testing.T) {
	require.Empty(t, Group(nil))
}
