package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads a catalog from a single YAML file or from every YAML file
// under a directory. Fragments are merged in lexical file order.
func Load(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat catalog: %w", err)
	}

	if !info.IsDir() {
		return LoadFile(path)
	}

	fragments, errors := LoadFromDirectory(path)
	if len(errors) > 0 {
		return nil, fmt.Errorf("failed to load catalog: %d errors (first: %v)", len(errors), errors[0])
	}

	merged := &Catalog{}
	for _, f := range fragments {
		merged.Merge(f.Catalog)
	}
	return merged, nil
}

// LoadFile parses a single catalog YAML file
func LoadFile(path string) (*Catalog, error) {
	cat, err := parseYAMLFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cat, nil
}

// LoadFromDirectory discovers and loads all catalog files from a directory
func LoadFromDirectory(dirPath string) ([]CatalogWithFile, []ValidationError) {
	var fragments []CatalogWithFile
	var errors []ValidationError

	files, err := discoverYAMLFiles(dirPath)
	if err != nil {
		errors = append(errors, ValidationError{
			File:    dirPath,
			Message: fmt.Sprintf("failed to read directory: %v", err),
		})
		return nil, errors
	}

	for _, file := range files {
		cat, err := parseYAMLFile(file)
		if err != nil {
			errors = append(errors, ValidationError{
				File:    file,
				Message: fmt.Sprintf("failed to parse YAML: %v", err),
			})
			continue
		}
		fragments = append(fragments, CatalogWithFile{
			Catalog: cat,
			File:    file,
		})
	}

	return fragments, errors
}

// discoverYAMLFiles finds all *.yaml and *.yml files in a directory
func discoverYAMLFiles(dirPath string) ([]string, error) {
	var files []string

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

func parseYAMLFile(filePath string) (*Catalog, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, err
	}

	return &cat, nil
}
