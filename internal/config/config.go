package config

import (
	"fmt"
	"time"
)

// Config holds server configuration
type Config struct {
	// Server settings
	Port int
	Host string

	// Catalog settings
	CatalogType  string // "file" or "consul"
	CatalogPath  string
	ConsulAddr   string
	ConsulPrefix string

	// Prober settings
	ProberType        string // "http" or "synthetic"
	SyntheticFixtures string
	ProbeTimeout      time.Duration
	ProbeConcurrency  int

	// Refresh settings
	RefreshInterval time.Duration
	AutoRefresh     bool

	// Audit settings
	AuditDBPath    string        // empty disables the audit trail
	AuditRetention time.Duration // zero keeps every archived report

	// API settings
	JWTSecret string // empty leaves refresh endpoints open

	// Operational settings
	GracefulShutdownTimeout time.Duration
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	switch c.CatalogType {
	case "file":
		if c.CatalogPath == "" {
			return fmt.Errorf("catalog path is required when catalog type is 'file'")
		}
	case "consul":
		if c.ConsulAddr == "" {
			return fmt.Errorf("Consul address required when catalog type is 'consul'")
		}
	default:
		return fmt.Errorf("catalog type must be 'file' or 'consul'")
	}

	switch c.ProberType {
	case "http":
	case "synthetic":
		if c.SyntheticFixtures == "" {
			return fmt.Errorf("synthetic fixtures required when prober type is 'synthetic'")
		}
	default:
		return fmt.Errorf("prober type must be 'http' or 'synthetic'")
	}

	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}

	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive")
	}

	if c.ProbeConcurrency <= 0 {
		return fmt.Errorf("probe concurrency must be positive")
	}

	if c.AuditRetention < 0 {
		return fmt.Errorf("audit retention must not be negative")
	}

	return nil
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Port:                    8080,
		Host:                    "0.0.0.0",
		CatalogType:             "file",
		ConsulPrefix:            "tiergate",
		ProberType:              "http",
		ProbeTimeout:            5 * time.Second,
		ProbeConcurrency:        10,
		RefreshInterval:         30 * time.Second,
		AutoRefresh:             true,
		GracefulShutdownTimeout: 30 * time.Second,
	}
}
