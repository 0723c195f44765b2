package catalog

import (
	"context"
	"errors"
)

// ErrConsulDisabled is returned when a Consul source is requested from a
// binary built without the consul tag.
var ErrConsulDisabled = errors.New("consul catalog source requires the consul build tag")

// Source supplies a fresh catalog snapshot for each refresh cycle.
type Source interface {
	Snapshot(ctx context.Context) (*Catalog, error)
	Name() string
}

// FileSource re-reads a catalog file or directory on every snapshot, so
// edits are picked up by the next cycle without a restart.
type FileSource struct {
	path string
}

// NewFileSource creates a source backed by a YAML file or directory
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Snapshot implements Source
func (s *FileSource) Snapshot(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(s.path)
}

// Name implements Source
func (s *FileSource) Name() string {
	return "file:" + s.path
}

// StaticSource always returns the same catalog
type StaticSource struct {
	catalog *Catalog
}

// NewStaticSource wraps an in-memory catalog
func NewStaticSource(c *Catalog) *StaticSource {
	return &StaticSource{catalog: c}
}

// Snapshot implements Source
func (s *StaticSource) Snapshot(ctx context.Context) (*Catalog, error) {
	return s.catalog, nil
}

// Name implements Source
func (s *StaticSource) Name() string {
	return "static"
}
