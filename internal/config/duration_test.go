package config

import (
	"flag"
	"testing"
	"time"
)

func TestParseInterval_Valid(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"1s", 1 * time.Second},
		{"30s", 30 * time.Second},
		{"5m", 5 * time.Minute},
		{"1h", 1 * time.Hour},
		{"1d", 24 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseInterval(tt.input)
			if err != nil {
				t.Fatalf("ParseInterval(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseInterval(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseInterval_Invalid(t *testing.T) {
	tests := []string{
		"",
		"invalid",
		"30",
		"30x",
		"30 s",
		"s30",
		"-5m",
		"1.5h",
		"1h30m",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := ParseInterval(input)
			if err == nil {
				t.Errorf("ParseInterval(%q) expected error, got nil", input)
			}
		})
	}
}

func TestIntervalFlag(t *testing.T) {
	d := 30 * time.Second
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(IntervalFlag{D: &d}, "interval", "refresh interval")

	if err := fs.Parse([]string{"-interval", "5m"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 5*time.Minute {
		t.Errorf("expected 5m, got %v", d)
	}

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(discard{})
	fs.Var(IntervalFlag{D: &d}, "interval", "refresh interval")
	if err := fs.Parse([]string{"-interval", "soon"}); err == nil {
		t.Error("expected error for invalid interval")
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
