// Package cmd provides the CLI commands for findtext.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/findtext/internal/config"
	fterrors "github.com/Aman-CERP/findtext/internal/errors"
	"github.com/Aman-CERP/findtext/internal/logging"
	"github.com/Aman-CERP/findtext/internal/profiling"
	"github.com/Aman-CERP/findtext/pkg/version"
)

// Exit codes.
const (
	exitOK        = 0
	exitError     = 1
	exitCancelled = 130
)

// Profiling flags
var (
	profileCPU    string
	profileMem    string
	profileTrace  string
	stopProfiling func() error
)

// Global flags
var (
	debugMode      bool
	configFile     string
	loggingCleanup func()
	previousLogger *slog.Logger
)

// ExitError ends the process with Code. The failure has already been
// reported to the user, so Execute prints nothing more.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewRootCmd creates the root command for the findtext CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "findtext",
		Short: "Find text in every file under a directory",
		Long: `findtext searches every file under a directory for a piece of text,
case-insensitively, and prints each occurrence as it is found:

  /abs/path/file.txt: <line>:<offset>

Lines and offsets are 1-based; offsets count characters. Files that are
not valid text are skipped. Ctrl+C stops the search.

Running 'findtext <query> [dir]' is the same as 'findtext search <query> [dir]'.`,
		Version:       version.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.SetVersionTemplate("findtext version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging (also mirrored to stderr)")
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Additional config file, applied after user and project config")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newBrowseCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI with os.Args and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	root.SetArgs(defaultToSearch(root, os.Args[1:]))
	return exitCode(root, root.Execute())
}

func exitCode(root *cobra.Command, err error) int {
	if err == nil {
		return exitOK
	}

	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}

	if _, ok := fterrors.As(err); ok {
		fmt.Fprint(root.ErrOrStderr(), fterrors.FormatForCLI(err))
	} else {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
	}
	return exitError
}

// defaultToSearch inserts "search" when args do not name a subcommand, so
// that `findtext foo .` runs a search.
func defaultToSearch(root *cobra.Command, args []string) []string {
	if len(args) == 0 {
		return args
	}
	if sub, _, err := root.Find(args); err == nil && sub != root {
		return args
	}
	for _, a := range args {
		if slices.Contains([]string{"-h", "--help", "--version", "help", "completion"}, a) {
			return args
		}
	}
	if !slices.ContainsFunc(args, func(a string) bool { return !strings.HasPrefix(a, "-") }) {
		return args
	}
	return append([]string{"search"}, args...)
}

// startProfilingAndLogging starts profiling and file logging.
func startProfilingAndLogging(cmd *cobra.Command, _ []string) error {
	opts := profiling.Options{CPU: profileCPU, Mem: profileMem, Trace: profileTrace}
	if opts.Enabled() {
		stop, err := profiling.Start(opts, slog.Default())
		if err != nil {
			return fmt.Errorf("failed to start profiling: %w", err)
		}
		stopProfiling = stop
	}

	// serve sets up its own stderr-free logging.
	if cmd.Name() == "serve" {
		return nil
	}

	cfg, err := config.Load("", extraConfigFiles()...)
	if err != nil {
		cfg = config.NewConfig()
	}

	logger, cleanup, err := logging.Setup(loggingConfig(cfg))
	if err != nil {
		// A read-only home must not stop a search.
		slog.SetDefault(logging.Discard())
		return nil
	}
	loggingCleanup = cleanup
	previousLogger = slog.Default()
	slog.SetDefault(logger)
	slog.Debug("command started",
		slog.String("command", cmd.CommandPath()),
		slog.String("version", version.Short()))
	return nil
}

// stopProfilingAndLogging stops profiling and closes the log file.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if stopProfiling != nil {
		err = stopProfiling()
		stopProfiling = nil
	}

	if loggingCleanup != nil {
		slog.SetDefault(previousLogger)
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// loggingConfig builds the log settings from cfg and --debug.
func loggingConfig(cfg *config.Config) logging.Config {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	if cfg.Logging.Dir != "" {
		logCfg.FilePath = filepath.Join(cfg.Logging.Dir, logging.LogFileName)
	}
	if cfg.Logging.MaxSizeMB > 0 {
		logCfg.MaxSizeMB = cfg.Logging.MaxSizeMB
	}
	if cfg.Logging.MaxFiles > 0 {
		logCfg.MaxFiles = cfg.Logging.MaxFiles
	}
	if debugMode {
		logCfg.Level = "debug"
		logCfg.WriteToStderr = true
	}
	return logCfg
}

func extraConfigFiles() []string {
	if configFile == "" {
		return nil
	}
	return []string{configFile}
}

// loadConfig loads the configuration for a search rooted at dir.
func loadConfig(dir string) (*config.Config, error) {
	return config.Load(dir, extraConfigFiles()...)
}
