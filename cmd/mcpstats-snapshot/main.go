// Command mcpstats-snapshot records one registry count snapshot.
//
// It reads the registry's server list as JSON, either a bare array or a
// {"servers": [...]} page, classifies every server by its packages and
// remotes, and appends the resulting counts to a local feed file. The feed
// is replaced atomically so a concurrent 'mcpstats show' never reads a
// partial file.
//
// Run it from cron to build a feed that mcpstats reads through its default
// file:// feed URL:
//
//	curl -s https://registry.example/v0/servers | mcpstats-snapshot
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/mcpstats/internal/config"
	"github.com/blackwell-systems/mcpstats/internal/snapshots"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mcpstats-snapshot: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		feedPath string
		retain   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "mcpstats-snapshot [file]",
		Short: "Append a registry count snapshot to the local analytics feed",
		Long: `Read the MCP registry server list from file (or stdin when file is
omitted or "-"), classify each server and append one snapshot of the
counts to the feed.

With --retain, snapshots older than the given age are dropped afterwards.`,
		Example: `  # Record from a saved registry page
  mcpstats-snapshot servers.json

  # Record from stdin, keeping 90 days of history
  curl -s $REGISTRY/v0/servers | mcpstats-snapshot --retain 2160h`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open registry file: %w", err)
				}
				defer f.Close()
				in = f
			}

			if feedPath == "" {
				dir, err := config.DataDir()
				if err != nil {
					return err
				}
				feedPath = filepath.Join(dir, config.FeedFile)
			}
			return record(snapshots.New(feedPath), in, cmd.OutOrStdout(), retain)
		},
	}

	cmd.Flags().StringVar(&feedPath, "feed", "", "feed file to append to (default: ~/.mcpstats/analytics-latest.json)")
	cmd.Flags().DurationVar(&retain, "retain", 0, "drop snapshots older than this age (0 keeps everything)")
	return cmd
}

// record classifies the registry read from in and appends the snapshot.
func record(m *snapshots.Manager, in io.Reader, out io.Writer, retain time.Duration) error {
	servers, err := snapshots.ReadRegistry(in)
	if err != nil {
		return err
	}

	snap, err := m.Record(servers)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Recorded %s: %d total · %d local · %d remote · %d both · %d unknown\n",
		snap.Timestamp.Format(time.RFC3339), snap.TotalCount, snap.LocalCount,
		snap.RemoteCount, snap.BothCount, snap.UnknownCount)

	removed, err := m.Prune(retain)
	if err != nil {
		return err
	}
	if removed > 0 {
		fmt.Fprintf(out, "Pruned %d snapshot(s) older than %s\n", removed, retain)
	}
	return nil
}
