//go:build consul

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	consulapi "github.com/hashicorp/consul/api"
)

// ConsulSource reads catalog records stored as JSON values under
// <prefix>/projects/<id> and <prefix>/instances/<id>.
type ConsulSource struct {
	kv     *consulapi.KV
	prefix string
}

// NewConsulSource creates a Consul-backed source (requires build tag consul).
func NewConsulSource(addr, prefix string) (Source, error) {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	cli, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return &ConsulSource{kv: cli.KV(), prefix: strings.TrimSuffix(prefix, "/")}, nil
}

// Snapshot implements Source
func (s *ConsulSource) Snapshot(ctx context.Context) (*Catalog, error) {
	cat := &Catalog{}

	projectPairs, err := s.list(ctx, "projects")
	if err != nil {
		return nil, err
	}
	for _, p := range projectPairs {
		var project Project
		if err := json.Unmarshal(p.Value, &project); err != nil {
			log.Printf("consul catalog: skipping project %s: %v", p.Key, err)
			continue
		}
		cat.Projects = append(cat.Projects, project)
	}

	instancePairs, err := s.list(ctx, "instances")
	if err != nil {
		return nil, err
	}
	for _, p := range instancePairs {
		var inst Instance
		if err := json.Unmarshal(p.Value, &inst); err != nil {
			log.Printf("consul catalog: skipping instance %s: %v", p.Key, err)
			continue
		}
		cat.Instances = append(cat.Instances, inst)
	}

	return cat, nil
}

// Name implements Source
func (s *ConsulSource) Name() string {
	return "consul:" + s.prefix
}

func (s *ConsulSource) list(ctx context.Context, kind string) (consulapi.KVPairs, error) {
	opts := (&consulapi.QueryOptions{}).WithContext(ctx)
	pairs, _, err := s.kv.List(s.prefix+"/"+kind+"/", opts)
	if err != nil {
		return nil, fmt.Errorf("list consul %s: %w", kind, err)
	}
	return pairs, nil
}
