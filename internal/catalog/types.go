package catalog

// Catalog is one read-only snapshot of the registered instances and the
// projects that own them.
type Catalog struct {
	APIVersion string     `yaml:"apiVersion,omitempty" json:"apiVersion,omitempty"`
	Kind       string     `yaml:"kind,omitempty" json:"kind,omitempty"`
	Projects   []Project  `yaml:"projects" json:"projects"`
	Instances  []Instance `yaml:"instances" json:"instances"`
}

// Project is an owning project record
type Project struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Instance is a registered service instance. Environment is the free-text
// tier label as entered by whoever registered the instance.
type Instance struct {
	ID          string `yaml:"id" json:"id"`
	URL         string `yaml:"url" json:"url"`
	Environment string `yaml:"environment" json:"environment"`
	Region      string `yaml:"region,omitempty" json:"region,omitempty"`
	ProjectID   string `yaml:"projectId" json:"projectId"`
}

// ProjectName resolves a project id to its display name, falling back to
// the id when the project is not registered.
func (c *Catalog) ProjectName(id string) string {
	if c == nil {
		return id
	}
	for _, p := range c.Projects {
		if p.ID == id && p.Name != "" {
			return p.Name
		}
	}
	return id
}

// Merge appends other's projects and instances to c, preserving order.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil {
		return
	}
	c.Projects = append(c.Projects, other.Projects...)
	c.Instances = append(c.Instances, other.Instances...)
}

// CatalogWithFile pairs a catalog fragment with its source file path
type CatalogWithFile struct {
	Catalog *Catalog
	File    string
}

// ValidationError represents a validation error for a specific file
type ValidationError struct {
	File    string
	Path    string
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	if e.Path != "" {
		return e.File + ": " + e.Path + ": " + e.Message
	}
	return e.File + ": " + e.Message
}
