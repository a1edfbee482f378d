package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/blackwell-systems/mcpstats/internal/analytics"
)

// testEnv is an isolated home with a database path and a local feed.
type testEnv struct {
	home     string
	dbPath   string
	feedPath string
}

// setupEnv points HOME and XDG_CONFIG_HOME at a temp dir, clears MCPSTATS_*
// overrides, pins the local zone to UTC and drops retry backoff so failing
// fetches return quickly.
func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("NO_COLOR", "1")
	t.Setenv("COLORFGBG", "")
	for _, key := range []string{"FEED_URL", "DB", "GRANULARITY", "FILTER", "MAX_POINTS", "WATCH_INTERVAL"} {
		t.Setenv("MCPSTATS_"+key, "")
	}

	oldLocal := time.Local
	time.Local = time.UTC
	t.Cleanup(func() { time.Local = oldLocal })

	retryDelays = []time.Duration{time.Millisecond}
	t.Cleanup(func() { retryDelays = nil })

	return &testEnv{
		home:     home,
		dbPath:   filepath.Join(home, "data", "mcpstats.db"),
		feedPath: filepath.Join(home, "feed", "analytics-latest.json"),
	}
}

// writeFeed writes snapshots as the local feed file.
func (e *testEnv) writeFeed(t *testing.T, snapshots []analytics.Snapshot) {
	t.Helper()
	data, err := json.Marshal(snapshots)
	if err != nil {
		t.Fatalf("failed to marshal feed: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(e.feedPath), 0755); err != nil {
		t.Fatalf("failed to create feed dir: %v", err)
	}
	if err := os.WriteFile(e.feedPath, data, 0644); err != nil {
		t.Fatalf("failed to write feed: %v", err)
	}
}

// args prefixes the persistent flags that aim a command at this env.
func (e *testEnv) args(args ...string) []string {
	return append([]string{
		"--db", e.dbPath,
		"--feed-url", "file://" + filepath.ToSlash(e.feedPath),
	}, args...)
}

// threeDays is a feed with one snapshot at noon UTC on three consecutive days.
func threeDays() []analytics.Snapshot {
	base := time.Date(2025, 11, 5, 12, 0, 0, 0, time.UTC)
	var out []analytics.Snapshot
	for i := 0; i < 3; i++ {
		out = append(out, analytics.Snapshot{
			Timestamp:    base.AddDate(0, 0, i),
			LocalCount:   60 + i,
			RemoteCount:  50 + i,
			TotalCount:   100 + 10*i,
			BothCount:    10,
			UnknownCount: 2,
		})
	}
	return out
}

// execute runs the root command with args and returns what it wrote.
func execute(t *testing.T, ctx context.Context, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	if ctx == nil {
		ctx = context.Background()
	}
	resetCommands(RootCmd, ctx)

	var out, errb bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&errb)
	RootCmd.SetArgs(args)
	defer RootCmd.SetArgs(nil)

	err = RootCmd.ExecuteContext(ctx)
	return out.String(), errb.String(), err
}

// resetCommands restores every flag in the tree to its default and hands
// each command ctx, since cobra keeps both from the previous run.
func resetCommands(cmd *cobra.Command, ctx context.Context) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	cmd.SetContext(ctx)
	for _, sub := range cmd.Commands() {
		resetCommands(sub, ctx)
	}
}
