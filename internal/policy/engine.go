package policy

import (
	"fmt"

	"github.com/samijaber1/tiergate/internal/eval"
	"github.com/samijaber1/tiergate/internal/tier"
	"github.com/samijaber1/tiergate/internal/version"
)

// Engine applies the version-progression rules to service groups
type Engine struct {
	rules []Rule
}

// NewEngine creates a policy engine with the standard rule set
func NewEngine() *Engine {
	return &Engine{rules: defaultRules()}
}

// Rules returns the rules the engine applies, in evaluation order
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate checks one group. Every rule runs independently, so a group can
// produce between zero and len(Rules()) violations. Groups without any
// observation in a known tier are skipped.
func (e *Engine) Evaluate(group *eval.ServiceGroup) []Violation {
	if group == nil || !group.HasKnownTier() {
		return nil
	}

	state := snapshot(group)

	var violations []Violation
	for _, rule := range e.rules {
		msg, triggered := rule.check(state)
		if !triggered {
			continue
		}
		violations = append(violations, Violation{
			Rule:        rule.ID,
			ServiceName: group.Key.ServiceName,
			ProjectID:   group.Key.ProjectID,
			ProjectName: group.ProjectName,
			Message:     msg,
			Severity:    rule.Severity,
			Snapshot:    copyVersions(state.Present),
		})
	}

	return violations
}

// snapshot collects the known tiers of a group. Offline tiers are present
// with their placeholder version but excluded from comparisons.
func snapshot(group *eval.ServiceGroup) tierState {
	state := tierState{
		Present:  make(map[tier.Tier]string, 4),
		Versions: make(map[tier.Tier]string, 4),
	}
	for _, t := range tier.Canonical() {
		obs, ok := group.Get(t)
		if !ok {
			continue
		}
		state.Present[t] = obs.Version
		if v, ok := group.Version(t); ok {
			state.Versions[t] = v
		}
	}
	return state
}

func copyVersions(in map[tier.Tier]string) map[tier.Tier]string {
	out := make(map[tier.Tier]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func defaultRules() []Rule {
	return []Rule{
		{
			ID:          RuleProdAheadOfOAT,
			Severity:    SeverityCritical,
			Description: "production must not run a newer version than OAT",
			check:       aheadOf(tier.Prod, tier.OAT),
		},
		{
			ID:          RuleProdAheadOfUAT,
			Severity:    SeverityCritical,
			Description: "production must not run a newer version than UAT",
			check:       aheadOf(tier.Prod, tier.UAT),
		},
		{
			ID:          RuleOATAheadOfUAT,
			Severity:    SeverityWarning,
			Description: "OAT should not run a newer version than UAT",
			check:       aheadOf(tier.OAT, tier.UAT),
		},
		{
			ID:          RuleProdWithoutUAT,
			Severity:    SeverityWarning,
			Description: "production should not be deployed without an acceptance-tier deployment",
			check:       prodWithoutAcceptance,
		},
	}
}

// aheadOf triggers when both tiers are online and upper is newer than lower
func aheadOf(upper, lower tier.Tier) func(tierState) (string, bool) {
	return func(state tierState) (string, bool) {
		u, okU := state.Versions[upper]
		l, okL := state.Versions[lower]
		if !okU || !okL {
			return "", false
		}
		if version.Compare(u, l) <= 0 {
			return "", false
		}
		return fmt.Sprintf("%s version %s is ahead of %s version %s",
			upper.Label(), u, lower.Label(), l), true
	}
}

// prodWithoutAcceptance triggers when production is registered with neither
// a UAT nor an OAT observation. An offline acceptance instance still counts
// as deployed. A missing UAT next to a present OAT is covered by the
// ordering rules on OAT instead.
func prodWithoutAcceptance(state tierState) (string, bool) {
	p, ok := state.Present[tier.Prod]
	if !ok {
		return "", false
	}
	if _, ok := state.Present[tier.UAT]; ok {
		return "", false
	}
	if _, ok := state.Present[tier.OAT]; ok {
		return "", false
	}
	return fmt.Sprintf("%s version %s is deployed without a corresponding %s deployment",
		tier.Prod.Label(), p, tier.UAT.Label()), true
}
