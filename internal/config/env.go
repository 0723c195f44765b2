package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix is the prefix of every environment variable read by LoadEnv
const EnvPrefix = "TIERGATE_"

// LoadEnv applies environment overrides to cfg. If dotenvPath exists it is
// loaded first; variables already set in the process environment win over
// the file.
func LoadEnv(cfg *Config, dotenvPath string) error {
	if dotenvPath != "" {
		if _, err := os.Stat(dotenvPath); err == nil {
			if err := godotenv.Load(dotenvPath); err != nil {
				return fmt.Errorf("failed to load %s: %w", dotenvPath, err)
			}
		}
	}

	var errs []string
	record := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	record(envInt("PORT", &cfg.Port))
	envString("HOST", &cfg.Host)
	envString("CATALOG_TYPE", &cfg.CatalogType)
	envString("CATALOG_PATH", &cfg.CatalogPath)
	envString("CONSUL_ADDR", &cfg.ConsulAddr)
	envString("CONSUL_PREFIX", &cfg.ConsulPrefix)
	envString("PROBER", &cfg.ProberType)
	envString("SYNTHETIC_FIXTURES", &cfg.SyntheticFixtures)
	record(envInterval("PROBE_TIMEOUT", &cfg.ProbeTimeout))
	record(envInt("PROBE_CONCURRENCY", &cfg.ProbeConcurrency))
	record(envInterval("REFRESH_INTERVAL", &cfg.RefreshInterval))
	record(envBool("AUTO_REFRESH", &cfg.AutoRefresh))
	envString("AUDIT_DB", &cfg.AuditDBPath)
	record(envInterval("AUDIT_RETENTION", &cfg.AuditRetention))
	envString("JWT_SECRET", &cfg.JWTSecret)
	record(envInterval("SHUTDOWN_TIMEOUT", &cfg.GracefulShutdownTimeout))

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envString(key string, dst *string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = b
	return nil
}

func envInterval(key string, dst *time.Duration) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	d, err := ParseInterval(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = d
	return nil
}
