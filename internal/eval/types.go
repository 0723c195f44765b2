package eval

import (
	"net/url"
	"strings"
	"time"

	"github.com/samijaber1/tiergate/internal/tier"
)

// Status is the reachability of an instance at probe time
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

const (
	// DefaultVersion is reported for reachable instances that do not
	// advertise a version.
	DefaultVersion = "0.0.0"
	// PlaceholderVersion marks offline observations.
	PlaceholderVersion = "unknown"
)

// ProbeResult is the validated outcome of a single probe. Adapters either
// fill Service/Version for a reachable instance or set Online=false with Err.
type ProbeResult struct {
	Online       bool
	Service      string
	Version      string
	HTTPStatus   int
	ResponseTime time.Duration
	Err          error
}

// Observation is one probe's recorded outcome for one registered instance.
type Observation struct {
	InstanceID     string    `json:"instanceId"`
	ServiceName    string    `json:"serviceName"`
	ProjectID      string    `json:"projectId"`
	ProjectName    string    `json:"projectName"`
	URL            string    `json:"url"`
	Version        string    `json:"version"`
	Status         Status    `json:"status"`
	Tier           tier.Tier `json:"tier"`
	RawTier        string    `json:"rawTier"`
	Region         string    `json:"region,omitempty"`
	ResponseTimeMs int64     `json:"responseTimeMs"`
	ObservedAt     time.Time `json:"observedAt"`
	Error          string    `json:"error,omitempty"`
}

// Online reports whether the instance answered the probe
func (o Observation) Online() bool {
	return o.Status == StatusOnline
}

// GroupKey identifies one logical service within one project
type GroupKey struct {
	ServiceName string `json:"serviceName"`
	ProjectID   string `json:"projectId"`
}

func (k GroupKey) String() string {
	return k.ServiceName + "@" + k.ProjectID
}

// TierConflict records an observation that was overwritten because another
// observation of the same group normalized to the same tier later in the cycle.
type TierConflict struct {
	Key     GroupKey    `json:"key"`
	Tier    tier.Tier   `json:"tier"`
	Kept    Observation `json:"kept"`
	Dropped Observation `json:"dropped"`
}

// ServiceGroup holds at most one observation per tier for a service
type ServiceGroup struct {
	Key          GroupKey                  `json:"key"`
	ProjectName  string                    `json:"projectName"`
	Observations map[tier.Tier]Observation `json:"observations"`
	Conflicts    []TierConflict            `json:"conflicts,omitempty"`
}

// Get returns the observation recorded for a tier
func (g *ServiceGroup) Get(t tier.Tier) (Observation, bool) {
	obs, ok := g.Observations[t]
	return obs, ok
}

// Version returns the version reported by the tier's instance. Offline
// observations carry only a placeholder and are treated as absent.
func (g *ServiceGroup) Version(t tier.Tier) (string, bool) {
	obs, ok := g.Observations[t]
	if !ok || !obs.Online() {
		return "", false
	}
	return obs.Version, true
}

// HasKnownTier reports whether any observation landed in dev, uat, oat or prod
func (g *ServiceGroup) HasKnownTier() bool {
	for _, t := range tier.Canonical() {
		if _, ok := g.Observations[t]; ok {
			return true
		}
	}
	return false
}

// ServiceFromURL derives a service name from the first label of the URL host.
func ServiceFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	host := u.Hostname()
	if i := strings.IndexByte(host, '.'); i > 0 {
		return host[:i]
	}
	return host
}
