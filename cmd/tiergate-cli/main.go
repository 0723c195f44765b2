package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/samijaber1/tiergate/internal/adapter/httpprobe"
	"github.com/samijaber1/tiergate/internal/adapter/synthetic"
	"github.com/samijaber1/tiergate/internal/catalog"
	"github.com/samijaber1/tiergate/internal/eval"
	"github.com/samijaber1/tiergate/internal/policy"
	"github.com/samijaber1/tiergate/internal/report"
)

const (
	exitOK       = 0
	exitError    = 1
	exitCritical = 2
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validateCatalog := validateCmd.String("catalog", "", "catalog YAML file or directory")

	checkCmd := flag.NewFlagSet("check", flag.ExitOnError)
	checkCatalog := checkCmd.String("catalog", "", "catalog YAML file or directory")
	checkFixtures := checkCmd.String("fixtures", "", "probe fixture JSON (skips network probing)")
	checkTimeout := checkCmd.Duration("timeout", 5*time.Second, "per-probe timeout")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitError)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		if *validateCatalog == "" {
			fmt.Fprintln(os.Stderr, "Error: --catalog flag is required")
			validateCmd.Usage()
			os.Exit(exitError)
		}
		os.Exit(runValidate(*validateCatalog))
	case "check":
		checkCmd.Parse(os.Args[2:])
		if *checkCatalog == "" {
			fmt.Fprintln(os.Stderr, "Error: --catalog flag is required")
			checkCmd.Usage()
			os.Exit(exitError)
		}
		os.Exit(runCheck(*checkCatalog, *checkFixtures, *checkTimeout, os.Stdout))
	default:
		printUsage()
		os.Exit(exitError)
	}
}

func printUsage() {
	fmt.Println("Usage: tiergate <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  validate --catalog <path>                    Validate catalog YAML files")
	fmt.Println("  check --catalog <path> [--fixtures <json>]   Run one compliance cycle")
	fmt.Println()
}

func runValidate(path string) int {
	validator, err := catalog.NewValidator()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize validator: %v\n", err)
		return exitError
	}

	errors := validator.ValidatePath(path)

	if len(errors) == 0 {
		fmt.Println("✓ All catalog files are valid")
		return exitOK
	}

	// Group errors by file
	errorsByFile := make(map[string][]catalog.ValidationError)
	for _, err := range errors {
		errorsByFile[err.File] = append(errorsByFile[err.File], err)
	}

	var files []string
	for file := range errorsByFile {
		files = append(files, file)
	}
	sort.Strings(files)

	fmt.Fprintf(os.Stderr, "✗ Validation failed with %d error(s):\n\n", len(errors))
	for _, file := range files {
		for _, err := range errorsByFile[file] {
			if err.Path != "" {
				fmt.Fprintf(os.Stderr, "%s: %s: %s\n", filepath.Base(err.File), err.Path, err.Message)
			} else {
				fmt.Fprintf(os.Stderr, "%s: %s\n", filepath.Base(err.File), err.Message)
			}
		}
	}

	return exitError
}

func runCheck(catalogPath, fixtures string, timeout time.Duration, out io.Writer) int {
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	var prober eval.Prober
	if fixtures != "" {
		adapter := synthetic.NewAdapter()
		if err := adapter.LoadFixture(fixtures); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
		prober = adapter
	} else {
		probeConfig := httpprobe.DefaultConfig()
		probeConfig.Timeout = timeout
		prober = httpprobe.NewAdapter(probeConfig)
	}

	start := time.Now()
	observations := eval.NewEvaluator(prober).Collect(context.Background(), cat)
	r := report.Build(eval.Group(observations), policy.NewEngine(), start)
	r.DurationMs = time.Since(start).Milliseconds()

	printMatrix(out, report.BuildMatrix(r))
	fmt.Fprintln(out)
	printViolations(out, r)

	if r.CriticalCount > 0 {
		return exitCritical
	}
	return exitOK
}

func printMatrix(out io.Writer, m report.Matrix) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "SERVICE\tPROJECT")
	for _, col := range m.Columns {
		fmt.Fprintf(tw, "\t%s", col.Label)
	}
	fmt.Fprintln(tw, "\tSTATUS")

	for _, row := range m.Rows {
		fmt.Fprintf(tw, "%s\t%s", row.ServiceName, row.ProjectName)
		for _, cell := range row.Cells {
			v := cell.Version
			if cell.Present && cell.Status == eval.StatusOffline {
				v += " (offline)"
			}
			fmt.Fprintf(tw, "\t%s", v)
		}
		status := "ok"
		if row.HasViolation {
			status = string(row.WorstSeverity)
		}
		fmt.Fprintf(tw, "\t%s\n", status)
	}
	tw.Flush()
}

func printViolations(out io.Writer, r *report.ComplianceReport) {
	fmt.Fprintf(out, "Score: %d%% (%d/%d groups compliant)\n",
		r.Score, r.CompliantGroupCount, r.TotalGroupCount)

	if r.TotalViolations == 0 {
		fmt.Fprintln(out, "✓ No violations")
		return
	}

	fmt.Fprintf(out, "✗ %d violation(s): %d critical, %d warning\n",
		r.TotalViolations, r.CriticalCount, r.WarningCount)
	for _, v := range r.Violations {
		fmt.Fprintf(out, "  [%s] %s/%s %s: %s\n", v.Severity, v.ProjectID, v.ServiceName, v.Rule, v.Message)
	}

	for _, c := range r.Conflicts {
		fmt.Fprintf(out, "  [conflict] %s %s: kept %s, dropped %s\n",
			c.Key, c.Tier, c.Kept.InstanceID, c.Dropped.InstanceID)
	}
}
