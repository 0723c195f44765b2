package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile(t *testing.T) {
	cat, err := Load("../../fixtures/catalog/valid/catalog.yaml")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if len(cat.Projects) != 2 {
		t.Errorf("expected 2 projects, got %d", len(cat.Projects))
	}

	if len(cat.Instances) != 6 {
		t.Fatalf("expected 6 instances, got %d", len(cat.Instances))
	}

	// Order follows the file
	if cat.Instances[0].ID != "ledger-dev" || cat.Instances[5].ID != "login-prod" {
		t.Errorf("unexpected instance order: first=%s last=%s", cat.Instances[0].ID, cat.Instances[5].ID)
	}

	if got := cat.ProjectName("payments"); got != "Payments Platform" {
		t.Errorf("expected project name 'Payments Platform', got %q", got)
	}

	if got := cat.ProjectName("missing"); got != "missing" {
		t.Errorf("expected fallback to id, got %q", got)
	}
}

func TestLoadDirectory_MergesFragments(t *testing.T) {
	cat, err := Load("../../fixtures/catalog/split")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if len(cat.Projects) != 1 || cat.Projects[0].ID != "search" {
		t.Errorf("expected single search project, got %+v", cat.Projects)
	}

	if len(cat.Instances) != 2 {
		t.Errorf("expected 2 instances, got %d", len(cat.Instances))
	}
}

func TestLoad_MissingPath(t *testing.T) {
	if _, err := Load("does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestLoadFromDirectory_ParseError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("projects: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, errors := LoadFromDirectory(dir)
	if len(errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errors))
	}

	if _, err := Load(dir); err == nil {
		t.Error("expected Load to fail on broken fragment")
	}
}

func TestFileSource_RereadsEachSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")

	write := func(content string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("projects:\n  - id: a\n    name: A\ninstances: []\n")
	src := NewFileSource(path)

	first, err := src.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(first.Instances) != 0 {
		t.Fatalf("expected no instances, got %d", len(first.Instances))
	}

	write("projects:\n  - id: a\n    name: A\ninstances:\n  - id: x\n    url: http://x.dev/v\n    environment: dev\n    projectId: a\n")

	second, err := src.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(second.Instances) != 1 {
		t.Errorf("expected 1 instance after edit, got %d", len(second.Instances))
	}
}

func TestFileSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewFileSource("../../fixtures/catalog/valid").Snapshot(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}
