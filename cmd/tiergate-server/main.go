package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/samijaber1/tiergate/internal/adapter/httpprobe"
	"github.com/samijaber1/tiergate/internal/adapter/synthetic"
	"github.com/samijaber1/tiergate/internal/api"
	"github.com/samijaber1/tiergate/internal/catalog"
	"github.com/samijaber1/tiergate/internal/config"
	"github.com/samijaber1/tiergate/internal/eval"
	"github.com/samijaber1/tiergate/internal/policy"
	"github.com/samijaber1/tiergate/internal/scheduler"
	"github.com/samijaber1/tiergate/internal/storage/sqlite"
)

func main() {
	// Parse flags
	cfg := parseFlags()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Starting tiergate server...")
	log.Printf("Config: port=%d, catalog=%s, prober=%s, interval=%s, auto-refresh=%t",
		cfg.Port, cfg.CatalogType, cfg.ProberType, cfg.RefreshInterval, cfg.AutoRefresh)

	// Create catalog source
	var source catalog.Source
	switch cfg.CatalogType {
	case "file":
		if err := validateCatalog(cfg.CatalogPath); err != nil {
			log.Fatalf("Invalid catalog: %v", err)
		}
		source = catalog.NewFileSource(cfg.CatalogPath)
		log.Printf("Using catalog file: %s", cfg.CatalogPath)

	case "consul":
		s, err := catalog.NewConsulSource(cfg.ConsulAddr, cfg.ConsulPrefix)
		if err != nil {
			log.Fatalf("Failed to create Consul catalog source: %v", err)
		}
		source = s
		log.Printf("Using Consul catalog: %s/%s", cfg.ConsulAddr, cfg.ConsulPrefix)

	default:
		log.Fatalf("Unknown catalog type: %s", cfg.CatalogType)
	}

	// Create prober
	var prober eval.Prober
	switch cfg.ProberType {
	case "http":
		probeConfig := httpprobe.DefaultConfig()
		probeConfig.Timeout = cfg.ProbeTimeout
		probeConfig.MaxConcurrency = int64(cfg.ProbeConcurrency)
		prober = httpprobe.NewAdapter(probeConfig)
		log.Printf("Using HTTP prober: timeout=%s concurrency=%d", cfg.ProbeTimeout, cfg.ProbeConcurrency)

	case "synthetic":
		adapter := synthetic.NewAdapter()
		if err := adapter.LoadFixture(cfg.SyntheticFixtures); err != nil {
			log.Fatalf("Failed to load synthetic fixtures: %v", err)
		}
		prober = adapter
		log.Printf("Using synthetic prober with fixtures from: %s", cfg.SyntheticFixtures)

	default:
		log.Fatalf("Unknown prober type: %s", cfg.ProberType)
	}

	// Create evaluator and policy engine
	evaluator := eval.NewEvaluator(prober)
	evaluator.SetConcurrency(cfg.ProbeConcurrency)
	policyEngine := policy.NewEngine()

	// Create scheduler
	sched := scheduler.NewScheduler(source, evaluator, policyEngine, scheduler.Options{
		Interval:       cfg.RefreshInterval,
		AutoRefresh:    cfg.AutoRefresh,
		AuditRetention: cfg.AuditRetention,
	})

	// Optional audit trail
	if cfg.AuditDBPath != "" {
		store, err := sqlite.NewStore(cfg.AuditDBPath)
		if err != nil {
			log.Fatalf("Failed to open audit database: %v", err)
		}
		defer store.Close()
		sched.SetAuditStorage(store)
		log.Printf("Audit trail enabled: %s (retention=%s)", cfg.AuditDBPath, retentionLabel(cfg.AuditRetention))
	}

	// Start scheduler
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	var auth *api.Authenticator
	if cfg.JWTSecret != "" {
		auth = api.NewAuthenticator(cfg.JWTSecret)
		log.Printf("Bearer token auth enabled for refresh endpoints")
	}

	// Create and start HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	apiServer := api.NewServer(sched, addr, auth)

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- apiServer.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		sched.Stop()
		log.Fatalf("Server error: %v", err)

	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		// Graceful shutdown
		ctx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
		defer cancel()

		log.Println("Shutting down server...")
		if err := apiServer.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}

		log.Println("Stopping scheduler...")
		sched.Stop()

		log.Println("Shutdown complete")
	}
}

func parseFlags() config.Config {
	cfg := config.DefaultConfig()

	envFile := envFileFromArgs(os.Args[1:])
	if err := config.LoadEnv(&cfg, envFile); err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}

	// Registered so -env-file parses; the file was already applied above.
	envFileFlag := flag.String("env-file", envFile, "Path to a .env file with TIERGATE_* variables")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.Host, "host", cfg.Host, "HTTP server host")
	flag.StringVar(&cfg.CatalogType, "catalog-type", cfg.CatalogType, "Catalog source (file|consul)")
	flag.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "Catalog YAML file or directory")
	flag.StringVar(&cfg.ConsulAddr, "consul-addr", cfg.ConsulAddr, "Consul agent address (consul catalog)")
	flag.StringVar(&cfg.ConsulPrefix, "consul-prefix", cfg.ConsulPrefix, "Consul KV prefix (consul catalog)")
	flag.StringVar(&cfg.ProberType, "prober", cfg.ProberType, "Version prober (http|synthetic)")
	flag.StringVar(&cfg.SyntheticFixtures, "synthetic-fixtures", cfg.SyntheticFixtures, "Probe fixture JSON (synthetic prober)")
	flag.Var(config.IntervalFlag{D: &cfg.ProbeTimeout}, "probe-timeout", "Per-probe timeout (e.g. 5s)")
	flag.IntVar(&cfg.ProbeConcurrency, "probe-concurrency", cfg.ProbeConcurrency, "Maximum probes in flight")
	flag.Var(config.IntervalFlag{D: &cfg.RefreshInterval}, "interval", "Refresh interval (30s|5m|1h|1d)")
	flag.BoolVar(&cfg.AutoRefresh, "auto-refresh", cfg.AutoRefresh, "Recompute the report on every interval")
	flag.StringVar(&cfg.AuditDBPath, "audit-db", cfg.AuditDBPath, "SQLite audit database path (empty disables)")
	flag.Var(config.IntervalFlag{D: &cfg.AuditRetention}, "audit-retention", "Prune archived reports older than this (e.g. 30d, 0d keeps all)")
	flag.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "HS256 secret protecting refresh endpoints")

	flag.Parse()

	if _, err := os.Stat(*envFileFlag); err == nil {
		log.Printf("Loaded environment from %s", *envFileFlag)
	}

	return cfg
}

// validateCatalog runs the catalog validator over path and joins every
// problem into one error.
func validateCatalog(path string) error {
	validator, err := catalog.NewValidator()
	if err != nil {
		return err
	}

	problems := validator.ValidatePath(path)
	if len(problems) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(problems))
	for _, p := range problems {
		msgs = append(msgs, p.Error())
	}
	return fmt.Errorf("%d problem(s) in %s:\n  %s", len(problems), path, strings.Join(msgs, "\n  "))
}

func retentionLabel(d time.Duration) string {
	if d <= 0 {
		return "unlimited"
	}
	return d.String()
}

// envFileFromArgs finds -env-file ahead of flag parsing so the file can seed
// flag defaults.
func envFileFromArgs(args []string) string {
	for i, arg := range args {
		for _, name := range []string{"-env-file", "--env-file"} {
			if arg == name && i+1 < len(args) {
				return args[i+1]
			}
			if v, ok := strings.CutPrefix(arg, name+"="); ok {
				return v
			}
		}
	}
	return ".env"
}
