package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/mcpstats/internal/analytics"
	"github.com/blackwell-systems/mcpstats/internal/fetch"
	"github.com/blackwell-systems/mcpstats/internal/output"
)

var (
	showGranularity string
	showFilter      string
	showStart       string
	showEnd         string
	showMaxPoints   int
	showJSON        bool

	showCmd = &cobra.Command{
		Use:   "show",
		Short: "Fetch analytics and display the server count series",
		Long: `Fetch the analytics feed and display registry server counts bucketed
by the chosen granularity.

The feed is retried up to 3 times with a 10 second deadline per attempt.
When every attempt fails, the last cached data is shown with a warning.

Filters:
  • all      - total servers (default)
  • local    - servers with installable packages
  • remote   - servers with remote endpoints
  • show-all - every series side by side

Date bounds are calendar days (YYYY-MM-DD) in local time, inclusive.`,
		Example: `  # Daily totals
  mcpstats show

  # Hourly remote counts for one day
  mcpstats show --granularity hourly --filter remote --start 2025-11-07 --end 2025-11-07

  # Monthly series as JSON
  mcpstats show --granularity monthly --json`,
		Args: cobra.NoArgs,
		RunE: runShow,
	}
)

func init() {
	showCmd.Flags().StringVar(&showGranularity, "granularity", string(analytics.Daily), "bucket size: hourly, daily, weekly or monthly")
	showCmd.Flags().StringVar(&showFilter, "filter", string(analytics.FilterAll), "series: all, local, remote or show-all")
	showCmd.Flags().StringVar(&showStart, "start", "", "first day to include (YYYY-MM-DD)")
	showCmd.Flags().StringVar(&showEnd, "end", "", "last day to include (YYYY-MM-DD)")
	showCmd.Flags().IntVar(&showMaxPoints, "max-points", analytics.DefaultMaxPoints, "maximum rows before the series is thinned")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print buckets as JSON")

	RootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	view, err := resolveView(showStart, showEnd, showJSON)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	orch, _, err := newOrchestrator(st)
	if err != nil {
		return err
	}
	defer orch.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	spinner := output.NewSpinner("Fetching analytics...").
		WithSlowMessage(output.SlowFetchDelay, "Still fetching analytics, the feed is slow to respond...")
	spinner.SetWriter(cmd.ErrOrStderr())
	spinner.Start()
	res, err := orch.Load(ctx)
	spinner.Stop()

	if errors.Is(err, fetch.ErrCancelled) {
		logger.Debug("fetch cancelled")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load analytics: %w", err)
	}

	return renderAnalytics(cmd.OutOrStdout(), cmd.ErrOrStderr(), res, view, palette(st), time.Now())
}
