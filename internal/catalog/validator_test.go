package catalog

import (
	"path/filepath"
	"strings"
	"testing"
)

func mustNewValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("failed to create validator: %v", err)
	}
	return v
}

func TestValidator_ValidFiles(t *testing.T) {
	validator := mustNewValidator(t)

	for _, path := range []string{"../../fixtures/catalog/valid", "../../fixtures/catalog/split"} {
		errors := validator.ValidatePath(path)
		if len(errors) != 0 {
			t.Errorf("%s: expected no errors, got %d:", path, len(errors))
			for _, err := range errors {
				t.Logf("  %v", err)
			}
		}
	}
}

func TestValidator_InvalidFiles(t *testing.T) {
	validator := mustNewValidator(t)

	errors := validator.ValidatePath("../../fixtures/catalog/invalid")
	if len(errors) == 0 {
		t.Fatal("expected validation errors, got none")
	}

	errorsByFile := make(map[string][]ValidationError)
	for _, err := range errors {
		t.Logf("Error: %v", err)
		base := filepath.Base(err.File)
		errorsByFile[base] = append(errorsByFile[base], err)
	}

	// missing-fields.yaml lacks the url of its only instance
	if !anyMatch(errorsByFile["missing-fields.yaml"], "url") {
		t.Error("expected error about missing url in missing-fields.yaml")
	}

	badRefs := errorsByFile["bad-refs.yaml"]
	if !anyMatch(badRefs, "duplicate project") {
		t.Error("expected duplicate project error in bad-refs.yaml")
	}
	if !anyMatch(badRefs, "duplicate instance") {
		t.Error("expected duplicate instance error in bad-refs.yaml")
	}
	if !anyMatch(badRefs, "unknown project") {
		t.Error("expected unknown project error in bad-refs.yaml")
	}
}

func TestValidator_MissingPath(t *testing.T) {
	validator := mustNewValidator(t)

	errors := validator.ValidatePath("../../fixtures/catalog/none")
	if len(errors) != 1 {
		t.Errorf("expected 1 error, got %d", len(errors))
	}
}

func TestValidationError_Error(t *testing.T) {
	withPath := ValidationError{File: "a.yaml", Path: "instances[0].url", Message: "bad"}
	if withPath.Error() != "a.yaml: instances[0].url: bad" {
		t.Errorf("unexpected message: %s", withPath.Error())
	}

	withoutPath := ValidationError{File: "a.yaml", Message: "bad"}
	if withoutPath.Error() != "a.yaml: bad" {
		t.Errorf("unexpected message: %s", withoutPath.Error())
	}
}

func anyMatch(errs []ValidationError, substr string) bool {
	for _, err := range errs {
		if strings.Contains(err.Message, substr) || strings.Contains(err.Path, substr) {
			return true
		}
	}
	return false
}
