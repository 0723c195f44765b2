package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed catalog_v1.json
var schemaJSON []byte

const schemaURL = "https://tiergate.dev/schemas/catalog_v1.json"

// Validator checks catalog files against the catalog schema and the
// cross-record rules the schema cannot express.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded catalog schema
func NewValidator() (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add schema: %w", err)
	}

	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// ValidatePath validates a catalog file, or every catalog file under a directory.
func (v *Validator) ValidatePath(path string) []ValidationError {
	info, err := os.Stat(path)
	if err != nil {
		return []ValidationError{{File: path, Message: err.Error()}}
	}

	var files []string
	if info.IsDir() {
		files, err = discoverYAMLFiles(path)
		if err != nil {
			return []ValidationError{{File: path, Message: fmt.Sprintf("failed to read directory: %v", err)}}
		}
	} else {
		files = []string{path}
	}

	var allErrors []ValidationError
	var fragments []CatalogWithFile

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			allErrors = append(allErrors, ValidationError{File: file, Message: err.Error()})
			continue
		}

		allErrors = append(allErrors, v.validateSchema(file, data)...)

		var cat Catalog
		if err := yaml.Unmarshal(data, &cat); err != nil {
			allErrors = append(allErrors, ValidationError{
				File:    file,
				Message: fmt.Sprintf("failed to parse YAML: %v", err),
			})
			continue
		}
		fragments = append(fragments, CatalogWithFile{Catalog: &cat, File: file})
	}

	allErrors = append(allErrors, validateExtraRules(fragments)...)
	return allErrors
}

// validateSchema validates raw YAML content against the JSON schema
func (v *Validator) validateSchema(file string, data []byte) []ValidationError {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []ValidationError{{
			File:    file,
			Message: fmt.Sprintf("failed to parse YAML: %v", err),
		}}
	}

	if err := v.schema.Validate(doc); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			return extractSchemaErrors(file, validationErr)
		}
		return []ValidationError{{File: file, Message: err.Error()}}
	}

	return nil
}

// extractSchemaErrors flattens nested schema errors, keeping leaf causes only
func extractSchemaErrors(file string, err *jsonschema.ValidationError) []ValidationError {
	if len(err.Causes) == 0 {
		path := strings.Join(err.InstanceLocation, ".")
		if path == "" {
			path = "(root)"
		}
		return []ValidationError{{File: file, Path: path, Message: err.Error()}}
	}

	var errors []ValidationError
	for _, cause := range err.Causes {
		errors = append(errors, extractSchemaErrors(file, cause)...)
	}
	return errors
}

// validateExtraRules checks id uniqueness, project references and URL hosts
// across all fragments.
func validateExtraRules(fragments []CatalogWithFile) []ValidationError {
	var errors []ValidationError

	projectSeen := make(map[string]string)
	for _, f := range fragments {
		for i, p := range f.Catalog.Projects {
			if prevFile, exists := projectSeen[p.ID]; exists {
				errors = append(errors, ValidationError{
					File:    f.File,
					Path:    fmt.Sprintf("projects[%d].id", i),
					Message: fmt.Sprintf("duplicate project ID %q (also in %s)", p.ID, filepath.Base(prevFile)),
				})
				continue
			}
			projectSeen[p.ID] = f.File
		}
	}

	instanceSeen := make(map[string]string)
	for _, f := range fragments {
		for i, inst := range f.Catalog.Instances {
			if prevFile, exists := instanceSeen[inst.ID]; exists {
				errors = append(errors, ValidationError{
					File:    f.File,
					Path:    fmt.Sprintf("instances[%d].id", i),
					Message: fmt.Sprintf("duplicate instance ID %q (also in %s)", inst.ID, filepath.Base(prevFile)),
				})
			} else {
				instanceSeen[inst.ID] = f.File
			}

			if _, ok := projectSeen[inst.ProjectID]; !ok {
				errors = append(errors, ValidationError{
					File:    f.File,
					Path:    fmt.Sprintf("instances[%d].projectId", i),
					Message: fmt.Sprintf("unknown project %q", inst.ProjectID),
				})
			}

			if u, err := url.Parse(inst.URL); err != nil || u.Hostname() == "" {
				errors = append(errors, ValidationError{
					File:    f.File,
					Path:    fmt.Sprintf("instances[%d].url", i),
					Message: fmt.Sprintf("url %q has no host", inst.URL),
				})
			}
		}
	}

	return errors
}
