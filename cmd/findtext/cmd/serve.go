package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/findtext/internal/history"
	"github.com/Aman-CERP/findtext/internal/logging"
	"github.com/Aman-CERP/findtext/internal/mcp"
	"github.com/Aman-CERP/findtext/internal/preflight"
)

func newServeCmd() *cobra.Command {
	var (
		transport string
		root      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol server on stdio.

The server exposes the find_text tool, which searches a directory (the
root by default) and returns the occurrences as structured data, and the
findtext://history resource listing recent searches.

stdout carries JSON-RPC only; logs go to the log file.`,
		Example: `  # Serve the current directory
  findtext serve

  # Serve another root
  findtext serve --root ~/src/project`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), transport, root)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport: stdio")
	cmd.Flags().StringVar(&root, "root", "", "Default directory for find_text (default: current directory)")

	return cmd
}

func runServe(ctx context.Context, transport, root string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}
	root, err := preflight.ValidateRoot(root)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	previous := slog.Default()
	defer slog.SetDefault(previous)
	if cleanup, err := logging.SetupServeMode(loggingConfig(cfg)); err == nil {
		defer cleanup()
	} else {
		slog.SetDefault(logging.Discard())
	}

	opts := mcp.Options{
		Root:         root,
		Search:       cfg.SearchOptions(),
		DefaultLimit: cfg.MCP.DefaultLimit,
		MaxLimit:     cfg.MCP.MaxLimit,
		HistoryLimit: cfg.History.MaxEntries,
		Logger:       slog.Default(),
	}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			slog.Warn("history_unavailable", slog.String("error", err.Error()))
		} else {
			opts.History = store
		}
	}

	server := mcp.NewServer(opts)
	defer func() { _ = server.Close() }()

	slog.Info("mcp_server_starting",
		slog.String("transport", transport),
		slog.String("root", root),
		slog.Bool("history", opts.History != nil))

	err = server.Serve(ctx, transport)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
