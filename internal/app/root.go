package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blackwell-systems/mcpstats/internal/config"
)

var (
	dbPath     string
	configFile string
	feedURL    string
	verbose    bool

	// settings and cfg are resolved once per invocation in loadSettings.
	settings *viper.Viper
	cfg      *config.Config
	logger   = slog.New(slog.NewTextHandler(io.Discard, nil))

	// RootCmd is the root command for mcpstats
	RootCmd = &cobra.Command{
		Use:   "mcpstats",
		Short: "Terminal analytics for the MCP server registry",
		Long: `mcpstats fetches periodic snapshots of MCP registry server counts,
keeps the last good response in a local cache and renders the series as
terminal tables.

Servers are classified by how they are delivered:
  • local   - installable packages only
  • remote  - hosted endpoints only
  • both    - packages and remote endpoints
  • unknown - neither

When the feed cannot be reached, the last cached data is shown with a
warning instead of failing.

Examples:
  # Daily totals for everything in the feed
  mcpstats show

  # Weekly local vs remote breakdown for October
  mcpstats show --granularity weekly --filter show-all --start 2025-10-01 --end 2025-10-31

  # Check cache freshness
  mcpstats status

  # Refresh every minute
  mcpstats watch --interval 1m`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadSettings,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "mcpstats: terminal analytics for the MCP server registry")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Tip: Run 'mcpstats show' to fetch and display the latest analytics.")
			fmt.Fprintln(out, "     Run 'mcpstats --help' for all commands.")
			return nil
		},
	}
)

// flagKeys maps config keys to the command-local flags that override them.
var flagKeys = map[string]string{
	config.KeyGranularity:   "granularity",
	config.KeyFilter:        "filter",
	config.KeyMaxPoints:     "max-points",
	config.KeyWatchInterval: "interval",
}

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.mcpstats/mcpstats.db)")
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ~/.config/mcpstats/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&feedURL, "feed-url", "", "analytics feed URL (default: file://~/.mcpstats/analytics-latest.json)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// ExecuteContext runs the root command with ctx; cancelling ctx aborts an
// in-flight fetch without an error.
func ExecuteContext(ctx context.Context) error {
	return RootCmd.ExecuteContext(ctx)
}

// loadSettings resolves configuration for the command being run. Flags
// that were set win over the environment, which wins over config.yaml.
func loadSettings(cmd *cobra.Command, args []string) error {
	logger = newLogger(cmd.ErrOrStderr(), verbose)

	v, err := config.New(configFile)
	if err != nil {
		return err
	}

	persistent := cmd.Root().PersistentFlags()
	if err := v.BindPFlag(config.KeyDB, persistent.Lookup("db")); err != nil {
		return fmt.Errorf("failed to bind --db: %w", err)
	}
	if err := v.BindPFlag(config.KeyFeedURL, persistent.Lookup("feed-url")); err != nil {
		return fmt.Errorf("failed to bind --feed-url: %w", err)
	}
	for key, name := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind --%s: %w", name, err)
			}
		}
	}

	resolved, err := config.Decode(v)
	if err != nil {
		return err
	}

	settings = v
	cfg = resolved
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("loaded config", "file", used)
	}
	return nil
}

// newLogger returns a text logger on w; debug level when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
