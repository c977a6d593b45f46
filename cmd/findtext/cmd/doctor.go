package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/findtext/internal/config"
	"github.com/Aman-CERP/findtext/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor [dir]",
		Short: "Check that a directory can be searched",
		Long: `Run diagnostics for a search rooted at dir (default: the current directory).

Checks:
  - The root is an existing, readable directory
  - The configuration loads and is valid
  - The open file limit covers the planned concurrency
  - The data directory (logs, history) is writable`,
		Example: `  findtext doctor
  findtext doctor ~/src/project --verbose
  findtext doctor --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runDoctor(cmd, dir, verbose, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runDoctor(cmd *cobra.Command, dir string, verbose, jsonOutput bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configDir := ""
	if abs, err := preflight.ValidateRoot(dir); err == nil {
		configDir = abs
	}
	cfg, cfgErr := loadConfig(configDir)
	concurrency := 0
	if cfgErr == nil {
		concurrency = cfg.Search.Concurrency
	}

	checker := preflight.New(
		preflight.WithVerbose(verbose),
		preflight.WithOutput(cmd.OutOrStdout()),
		preflight.WithConcurrency(concurrency),
		preflight.WithDataDir(config.DataDir()),
		preflight.WithConfigResult(effectiveConfigPath(configDir), cfgErr),
	)

	results := checker.RunAll(ctx, dir)

	if jsonOutput {
		if err := outputJSON(cmd, checker, results); err != nil {
			return err
		}
	} else {
		checker.PrintResults(results)
	}

	if checker.HasCriticalFailures(results) {
		return &ExitError{Code: exitError}
	}
	return nil
}

// doctorReport is the JSON form of the doctor results.
type doctorReport struct {
	Status string                  `json:"status"`
	Checks []preflight.CheckResult `json:"checks"`
}

func outputJSON(cmd *cobra.Command, checker *preflight.Checker, results []preflight.CheckResult) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(doctorReport{
		Status: checker.SummaryStatus(results),
		Checks: results,
	})
}

// effectiveConfigPath names the most specific config file in use, or ""
// when only defaults apply.
func effectiveConfigPath(dir string) string {
	if configFile != "" {
		return configFile
	}
	if dir != "" {
		if path := config.ProjectConfigPath(dir); path != "" {
			return path
		}
	}
	if config.UserConfigExists() {
		return config.GetUserConfigPath()
	}
	return ""
}
