package policy

import (
	"github.com/samijaber1/tiergate/internal/eval"
	"github.com/samijaber1/tiergate/internal/tier"
)

// Severity of a violation
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// RuleID names an ordering rule
type RuleID string

const (
	RuleProdAheadOfOAT RuleID = "prod-ahead-of-oat"
	RuleProdAheadOfUAT RuleID = "prod-ahead-of-uat"
	RuleOATAheadOfUAT  RuleID = "oat-ahead-of-uat"
	RuleProdWithoutUAT RuleID = "prod-without-uat"
)

// Violation is an ordering-rule breach detected in one service group.
// Snapshot holds the versions of the known tiers at evaluation time;
// offline tiers carry the placeholder version and absent tiers have no key.
type Violation struct {
	Rule        RuleID               `json:"rule"`
	ServiceName string               `json:"serviceName"`
	ProjectID   string               `json:"projectId"`
	ProjectName string               `json:"projectName"`
	Message     string               `json:"message"`
	Severity    Severity             `json:"severity"`
	Snapshot    map[tier.Tier]string `json:"snapshot"`
}

// Key returns the group the violation belongs to
func (v Violation) Key() eval.GroupKey {
	return eval.GroupKey{ServiceName: v.ServiceName, ProjectID: v.ProjectID}
}

// Rule is a single ordering check over a group's tiers
type Rule struct {
	ID          RuleID
	Severity    Severity
	Description string
	check       func(state tierState) (string, bool)
}

// tierState is what the rules see of a group. Present holds every known
// tier with an observation, offline ones included, mapped to the recorded
// version (the placeholder for offline tiers). Versions holds online tiers
// only and is the sole input to version comparisons.
type tierState struct {
	Present  map[tier.Tier]string
	Versions map[tier.Tier]string
}
