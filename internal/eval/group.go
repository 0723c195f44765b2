package eval

import (
	"log"

	"github.com/samijaber1/tiergate/internal/tier"
)

// Group partitions observations by (service name, project id). Groups keep
// the order in which their first observation appeared. When two observations
// of a group normalize to the same tier the later one wins and the
// overwrite is recorded as a TierConflict.
func Group(observations []Observation) []*ServiceGroup {
	var groups []*ServiceGroup
	index := make(map[GroupKey]*ServiceGroup)

	for _, obs := range observations {
		key := GroupKey{ServiceName: obs.ServiceName, ProjectID: obs.ProjectID}
		g, ok := index[key]
		if !ok {
			g = &ServiceGroup{
				Key:          key,
				ProjectName:  obs.ProjectName,
				Observations: make(map[tier.Tier]Observation),
			}
			index[key] = g
			groups = append(groups, g)
		}

		t := obs.Tier
		if t == "" {
			t = tier.Normalize(obs.RawTier)
			obs.Tier = t
		}

		if prev, exists := g.Observations[t]; exists {
			g.Conflicts = append(g.Conflicts, TierConflict{
				Key:     key,
				Tier:    t,
				Kept:    obs,
				Dropped: prev,
			})
			log.Printf("tier conflict: group=%s tier=%s kept=%s dropped=%s",
				key, t, obs.InstanceID, prev.InstanceID)
		}
		g.Observations[t] = obs
	}

	return groups
}
