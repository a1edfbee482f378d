package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/mcpstats/internal/cache"
	"github.com/blackwell-systems/mcpstats/internal/fetch"
	"github.com/blackwell-systems/mcpstats/internal/output"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose common issues with the cache and feed",
	Long: `Runs diagnostic checks on your mcpstats setup.

Checks:
  • Database exists and is accessible
  • Cached analytics are present and fresh
  • The analytics feed is reachable and valid

A reachable feed refreshes the cache as a side effect.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Running mcpstats diagnostics...")
	fmt.Fprintln(out)

	// Critical issues fail the command; warnings only get reported.
	criticalIssues := 0
	warningIssues := 0

	// Check 1: Database accessible
	st, err := openStore()
	if err != nil {
		fmt.Fprintln(out, "✗ Cannot open database:", err)
		fmt.Fprintln(out, "  Action: Check the --db path or the db config key")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Found %d critical issue(s) and %d warning(s).\n", 1, 0)
		return fmt.Errorf("diagnostics failed")
	}
	defer st.Close()
	fmt.Fprintln(out, "✓ Database is accessible:", cfg.DB)

	// Check 2: Cache present and fresh (warning only)
	cs := cache.New(st, nil)
	if snapshots, ok := cs.ReadStale(); !ok {
		fmt.Fprintln(out, "⚠ No cached analytics")
		fmt.Fprintln(out, "  Action: Run 'mcpstats show' to fetch the feed")
		warningIssues++
	} else if info, ok := cs.StalenessInfo(); !ok || info.IsStale {
		age := "unknown age"
		if ok {
			age = humanize.RelTime(info.CachedAt, time.Now(), "old", "from now")
		}
		fmt.Fprintf(out, "⚠ Cached analytics are stale (%d snapshots, %s)\n", len(snapshots), age)
		warningIssues++
	} else {
		fmt.Fprintf(out, "✓ Cached analytics are fresh (%d snapshots)\n", len(snapshots))
	}

	// Check 3: Feed reachable (critical)
	orch, _, err := newOrchestrator(st)
	if err != nil {
		fmt.Fprintln(out, "✗ Cannot create fetcher:", err)
		criticalIssues++
	} else {
		defer orch.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		start := time.Now()
		spinner := output.NewSpinner("Checking feed " + cfg.FeedURL + "...")
		spinner.SetWriter(cmd.ErrOrStderr())
		spinner.Start()
		snapshots, err := orch.FetchOwned(ctx)
		spinner.Stop()
		elapsed := time.Since(start).Round(time.Millisecond)

		switch {
		case errors.Is(err, fetch.ErrCancelled):
			fmt.Fprintln(out, "⚠ Feed check cancelled")
			warningIssues++
		case err != nil:
			fmt.Fprintf(out, "✗ Feed unreachable (%v)\n", elapsed)
			fmt.Fprintf(out, "  %v\n", err)
			fmt.Fprintln(out, "  Action: Check --feed-url or run mcpstats-snapshot to build a local feed")
			criticalIssues++
		default:
			fmt.Fprintf(out, "✓ Feed reachable: %d snapshots (%v)\n", len(snapshots), elapsed)
		}
	}

	fmt.Fprintln(out)
	if criticalIssues == 0 && warningIssues == 0 {
		fmt.Fprintln(out, "✓ All checks passed!")
		return nil
	}

	if criticalIssues > 0 {
		fmt.Fprintf(out, "Found %d critical issue(s) and %d warning(s).\n", criticalIssues, warningIssues)
		return fmt.Errorf("diagnostics failed")
	}

	fmt.Fprintf(out, "Found %d warning(s). mcpstats is functional.\n", warningIssues)
	return nil
}
