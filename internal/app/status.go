package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/mcpstats/internal/analytics"
	"github.com/blackwell-systems/mcpstats/internal/cache"
	"github.com/blackwell-systems/mcpstats/internal/output"
	"github.com/blackwell-systems/mcpstats/internal/store"
	"github.com/blackwell-systems/mcpstats/internal/theme"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache freshness and database details",
	Long: `Display the state of the local analytics cache without contacting the feed.

Shows:
  • Feed URL and database location
  • Database size on disk
  • Whether cached data exists and how old it is
  • Number of cached snapshots and the latest capture time
  • The active color theme

Cached data older than 5 minutes is reported as stale.`,
	Example: `  # Check cache status
  mcpstats status`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	// Register with root command
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	now := time.Now()

	s := output.Status{
		DBPath:  cfg.DB,
		FeedURL: cfg.FeedURL,
		Theme:   theme.System(os.Getenv),
	}

	fi, err := os.Stat(cfg.DB)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprint(out, output.RenderStatus(s, now))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat database: %w", err)
	}
	s.DBSize = fi.Size()

	st, err := store.New(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	fillCacheStatus(&s, cache.New(st, func() time.Time { return now }))
	s.Theme = theme.Initial(st, os.Getenv)

	fmt.Fprint(out, output.RenderStatus(s, now))
	return nil
}

// fillCacheStatus copies cache presence, age and contents into s. A
// database without the schema reads as an empty cache.
func fillCacheStatus(s *output.Status, cs *cache.Store) {
	snapshots, ok := cs.ReadStale()
	if !ok {
		return
	}
	s.HasCache = true
	s.Snapshots = len(snapshots)
	if latest, ok := analytics.Latest(snapshots); ok {
		s.Latest = latest.Timestamp
	}
	if info, ok := cs.StalenessInfo(); ok {
		s.CachedAt = info.CachedAt
		s.IsStale = info.IsStale
	} else {
		s.IsStale = true
	}
}
