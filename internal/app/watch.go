package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/mcpstats/internal/analytics"
	"github.com/blackwell-systems/mcpstats/internal/config"
	"github.com/blackwell-systems/mcpstats/internal/fetch"
	"github.com/blackwell-systems/mcpstats/internal/watcher"
)

var (
	watchInterval    time.Duration
	watchGranularity string
	watchFilter      string
	watchStart       string
	watchEnd         string
	watchMaxPoints   int

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Re-fetch and re-render analytics on an interval",
		Long: `Fetch the analytics feed now and again on every interval, re-rendering
the table each time. Press Ctrl+C to stop.

A refresh that is still running when the next one is due is cancelled in
favor of the newer one. Failed refreshes fall back to cached data with a
warning, the same as 'mcpstats show'.

Changes to config.yaml while watching take effect for the refresh interval
without a restart.`,
		Example: `  # Refresh every 5 minutes (default)
  mcpstats watch

  # Hourly series refreshed every 30 seconds
  mcpstats watch --interval 30s --granularity hourly`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Minute, "time between refreshes")
	watchCmd.Flags().StringVar(&watchGranularity, "granularity", string(analytics.Daily), "bucket size: hourly, daily, weekly or monthly")
	watchCmd.Flags().StringVar(&watchFilter, "filter", string(analytics.FilterAll), "series: all, local, remote or show-all")
	watchCmd.Flags().StringVar(&watchStart, "start", "", "first day to include (YYYY-MM-DD)")
	watchCmd.Flags().StringVar(&watchEnd, "end", "", "last day to include (YYYY-MM-DD)")
	watchCmd.Flags().IntVar(&watchMaxPoints, "max-points", analytics.DefaultMaxPoints, "maximum rows before the series is thinned")

	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	view, err := resolveView(watchStart, watchEnd, false)
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

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	errw := cmd.ErrOrStderr()
	p := palette(st)

	w, err := watcher.New(orch, cfg.WatchInterval, func(res fetch.Result, err error) {
		now := time.Now()
		fmt.Fprintf(out, "\nUpdated %s\n\n", now.Format("15:04:05"))
		if err != nil {
			fmt.Fprintf(errw, "Error: failed to load analytics: %v\n", err)
			return
		}
		if err := renderAnalytics(out, errw, res, view, p, now); err != nil {
			fmt.Fprintf(errw, "Error: %v\n", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.SetLogger(logger)

	fmt.Fprintf(errw, "Watching %s every %s (Ctrl+C to stop)\n", cfg.FeedURL, cfg.WatchInterval)
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	if settings.ConfigFileUsed() != "" {
		settings.OnConfigChange(func(e fsnotify.Event) {
			reloaded, err := config.Decode(settings)
			if err != nil {
				logger.Warn("ignoring invalid config change", "file", e.Name, "error", err)
				return
			}
			if err := w.SetInterval(reloaded.WatchInterval); err != nil {
				logger.Warn("ignoring invalid interval", "error", err)
				return
			}
			logger.Info("config reloaded", "file", e.Name, "interval", reloaded.WatchInterval)
		})
		settings.WatchConfig()
	}

	<-ctx.Done()
	if err := w.Stop(); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}
	fmt.Fprintln(errw, "Stopped watching.")
	return nil
}
