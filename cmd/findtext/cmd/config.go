package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/findtext/configs"
	"github.com/Aman-CERP/findtext/internal/config"
	"github.com/Aman-CERP/findtext/internal/logging"
	"github.com/Aman-CERP/findtext/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage findtext configuration.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/findtext/config.yaml)
  3. Project config (.findtext.yaml in the searched directory)
  4. File passed with --config
  5. Environment variables (FINDTEXT_*)
  6. Command line flags`,
		Example: `  # Create the user config from the template
  findtext config init

  # Create .findtext.yaml in the current directory
  findtext config init --project

  # Show the effective configuration for a directory
  findtext config show ~/src/project

  # Print config, history and log locations
  findtext config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigRestoreCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force   bool
		project bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a configuration file from a template",
		Long: `Create the user configuration file, or with --project a .findtext.yaml
in dir (default: the current directory).

With --force an existing user config is backed up before it is replaced.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if project {
				dir := "."
				if len(args) == 1 {
					dir = args[0]
				}
				return runConfigInitProject(cmd, dir, force)
			}
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&project, "project", false, "Create a project config instead of the user config")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
		save       string
	)

	cmd := &cobra.Command{
		Use:   "show [dir]",
		Short: "Show effective configuration",
		Long: `Show the configuration a search of dir (default: the current directory)
would use, after merging every source.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runConfigShow(cmd, dir, jsonOutput, source, save)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, defaults")
	cmd.Flags().StringVar(&save, "save", "", "Also write the configuration as YAML to this file")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print configuration and data file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			cfg, err := loadConfig("")
			if err != nil {
				cfg = config.NewConfig()
			}
			fmt.Fprintf(w, "user config: %s\n", config.GetUserConfigPath())
			if wd, err := os.Getwd(); err == nil {
				if path := config.ProjectConfigPath(wd); path != "" {
					fmt.Fprintf(w, "project config: %s\n", path)
				}
			}
			fmt.Fprintf(w, "history: %s\n", cfg.History.Path)
			fmt.Fprintf(w, "log: %s\n", filepath.Join(cfg.Logging.Dir, logging.LogFileName))
			return nil
		},
	}
}

func newConfigRestoreCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "restore [backup]",
		Short: "Restore the user config from a backup",
		Long: `Restore the user configuration from a backup made by 'config init --force'.
Without an argument the newest backup is restored. The current file is
backed up first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())

			backups, err := config.ListUserConfigBackups()
			if err != nil {
				return err
			}
			if list {
				for _, b := range backups {
					fmt.Fprintln(cmd.OutOrStdout(), b)
				}
				return nil
			}

			var path string
			switch {
			case len(args) == 1:
				path = args[0]
			case len(backups) == 0:
				return fmt.Errorf("no config backups found")
			default:
				path = backups[0]
			}

			if err := config.RestoreUserConfig(path); err != nil {
				return err
			}
			out.Success("Restored user configuration")
			out.Statusf("📁", "From: %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List backups instead of restoring")

	return cmd
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())
	configPath := config.GetUserConfigPath()

	if config.UserConfigExists() {
		if !force {
			out.Warning("User configuration already exists")
			out.Statusf("📁", "Location: %s", configPath)
			out.Status("💡", "Use --force to replace it (a backup is kept)")
			return nil
		}
		backupPath, err := config.BackupUserConfig()
		if err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
		out.Statusf("💾", "Backup: %s", backupPath)
	}

	if err := writeTemplate(configPath, configs.UserConfigTemplate); err != nil {
		return err
	}

	out.Success("Created user configuration")
	out.Statusf("📁", "Location: %s", configPath)
	out.Status("💡", "Run 'findtext config show' to verify")
	return nil
}

func runConfigInitProject(cmd *cobra.Command, dir string, force bool) error {
	out := output.New(cmd.OutOrStdout())
	configPath := filepath.Join(dir, config.ProjectConfigNames[0])

	if existing := config.ProjectConfigPath(dir); existing != "" && !force {
		out.Warning("Project configuration already exists")
		out.Statusf("📁", "Location: %s", existing)
		out.Status("💡", "Use --force to replace it")
		return nil
	}

	if err := writeTemplate(configPath, configs.ProjectConfigTemplate); err != nil {
		return err
	}

	out.Success("Created project configuration")
	out.Statusf("📁", "Location: %s", configPath)
	return nil
}

func writeTemplate(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, dir string, jsonOutput bool, source, save string) error {
	var cfg *config.Config
	switch source {
	case "merged":
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", dir, err)
		}
		cfg, err = loadConfig(abs)
		if err != nil {
			return err
		}
	case "defaults":
		cfg = config.NewConfig()
	default:
		return fmt.Errorf("invalid source: %s (use: merged, defaults)", source)
	}

	if save != "" {
		if err := cfg.WriteYAML(save); err != nil {
			return err
		}
	}

	if jsonOutput {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}
