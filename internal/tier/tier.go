package tier

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tier is a canonical deployment stage. Labels that do not map to one of the
// known stages keep their lower-cased text and report Known() == false.
type Tier string

const (
	Dev  Tier = "dev"
	UAT  Tier = "uat"
	OAT  Tier = "oat"
	Prod Tier = "prod"
)

// matchOrder is the substring test order. A label containing several
// markers resolves to the first one listed here.
var matchOrder = []Tier{Prod, OAT, UAT, Dev}

// Normalize maps a free-text environment label to a Tier.
func Normalize(label string) Tier {
	lower := strings.ToLower(label)
	for _, t := range matchOrder {
		if strings.Contains(lower, string(t)) {
			return t
		}
	}
	return Tier(lower)
}

// Canonical returns the known tiers in promotion order.
func Canonical() []Tier {
	return []Tier{Dev, UAT, OAT, Prod}
}

// Known reports whether t is one of dev, uat, oat or prod.
func (t Tier) Known() bool {
	return t.Rank() >= 0
}

// Rank is the position of t in the promotion order, or -1 for unknown tiers.
func (t Tier) Rank() int {
	switch t {
	case Dev:
		return 0
	case UAT:
		return 1
	case OAT:
		return 2
	case Prod:
		return 3
	default:
		return -1
	}
}

// Label returns a display name for column headers.
func (t Tier) Label() string {
	switch t {
	case UAT, OAT:
		return strings.ToUpper(string(t))
	case Dev:
		return titleCase("development")
	case Prod:
		return titleCase("production")
	default:
		if t == "" {
			return "Unknown"
		}
		return titleCase(string(t))
	}
}

func (t Tier) String() string {
	return string(t)
}

// titleCase builds a fresh Caser per call; Casers carry state and must not
// be shared between goroutines.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
