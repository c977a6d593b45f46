package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/findtext/internal/history"
	"github.com/Aman-CERP/findtext/internal/output"
	"github.com/Aman-CERP/findtext/internal/ui"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit      int
		jsonOutput bool
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent searches",
		Long: `Show the most recent searches, newest first, with their outcome and
counts. Searches run from the command line and through the MCP server
are recorded unless history is disabled (history.enabled: false).`,
		Example: `  findtext history
  findtext history -n 5 --json
  findtext history clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			r := ui.NewHistoryRenderer(cmd.OutOrStdout(), noColor || !ui.ColorEnabled("auto", cmd.OutOrStdout()))
			if jsonOutput {
				return r.RenderJSON(entries)
			}
			return r.Render(entries)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of searches to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(newHistoryClearCmd())

	return cmd
}

func newHistoryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			n, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Successf("Cleared %d %s", n, pluralize(n, "search", "searches"))
			return nil
		},
	}
}

// openHistory opens the configured history database.
func openHistory() (*history.Store, error) {
	cfg, err := loadConfig("")
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("search history is disabled (history.enabled: false)")
	}
	return history.Open(cfg.History.Path)
}

func pluralize(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
