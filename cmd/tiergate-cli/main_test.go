package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestRunCheck(t *testing.T) {
	tests := []struct {
		name     string
		fixtures string
		wantCode int
		wantOut  []string
	}{
		{
			name:     "healthy",
			fixtures: "../../fixtures/probes/healthy.json",
			wantCode: exitOK,
			wantOut:  []string{"Score: 100%", "No violations"},
		},
		{
			name:     "mixed",
			fixtures: "../../fixtures/probes/mixed.json",
			wantCode: exitCritical,
			wantOut:  []string{"Score: 50%", "prod-ahead-of-uat", "oat-ahead-of-uat", "(offline)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			code := runCheck("../../fixtures/catalog/valid/catalog.yaml", tt.fixtures, time.Second, &out)
			if code != tt.wantCode {
				t.Errorf("expected exit code %d, got %d\n%s", tt.wantCode, code, out.String())
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(out.String(), want) {
					t.Errorf("expected output to contain %q\n%s", want, out.String())
				}
			}
		})
	}
}

func TestRunCheck_MissingCatalog(t *testing.T) {
	var out bytes.Buffer
	if code := runCheck("does-not-exist.yaml", "", time.Second, &out); code != exitError {
		t.Errorf("expected exit code %d, got %d", exitError, code)
	}
}

func TestRunValidate(t *testing.T) {
	if code := runValidate("../../fixtures/catalog/valid"); code != exitOK {
		t.Errorf("expected valid catalog, got exit code %d", code)
	}
	if code := runValidate("../../fixtures/catalog/invalid"); code != exitError {
		t.Errorf("expected invalid catalog, got exit code %d", code)
	}
}
