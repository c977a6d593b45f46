package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/findtext/internal/config"
	"github.com/Aman-CERP/findtext/internal/preflight"
	"github.com/Aman-CERP/findtext/internal/search"
	"github.com/Aman-CERP/findtext/internal/ui"
)

func newBrowseCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "browse [dir]",
		Short: "Search interactively",
		Long: `Open a full-screen search window.

Type a directory and a query, then press Enter. Occurrences stream into
the scrollable log below. Esc cancels a running search, or quits when
nothing is running.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			} else if wd, err := os.Getwd(); err == nil {
				dir = wd
			}
			return runBrowse(cmd.Context(), dir, noColor)
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runBrowse(ctx context.Context, dir string, noColor bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	return ui.RunBrowser(ctx, ui.BrowseOptions{
		Root:     dir,
		Search:   browseSearch,
		Validate: preflight.ValidateRoot,
		NoColor:  noColor,
	})
}

// browseSearch starts a search with the configuration for root. History
// is not recorded for interactive searches.
func browseSearch(ctx context.Context, query, root string) (*search.Session, error) {
	cfg, err := loadConfig(root)
	if err != nil {
		slog.Warn("config_load_failed", slog.String("root", root), slog.String("error", err.Error()))
		cfg = config.NewConfig()
	}
	opts := cfg.SearchOptions()
	opts.Logger = slog.Default()
	return search.Search(ctx, query, root, opts)
}
