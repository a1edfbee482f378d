// Package output provides terminal output utilities for mcpstats.
//
// This package includes:
//   - Series tables for bucketed analytics and summary cards for the latest snapshot
//   - Stale-cache warnings and cache status reports
//   - A spinner for the feed fetch
//
// Colors follow the light/dark theme preference and are disabled when stdout
// is not a TTY or NO_COLOR is set.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/mcpstats/internal/analytics"
	"github.com/blackwell-systems/mcpstats/internal/theme"
)

const colorReset = "\033[0m"

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// Palette maps each series and the warning text to an ANSI color. The zero
// Palette renders plain text.
type Palette struct {
	Series map[analytics.Column]string
	Muted  string
	Warn   string
}

// PaletteFor returns the palette for a theme. When color is false the plain
// palette is returned.
func PaletteFor(t theme.Theme, color bool) Palette {
	if !color {
		return Palette{}
	}
	if t == theme.Dark {
		return Palette{
			Series: map[analytics.Column]string{
				analytics.ColumnTotal:   "\033[95m", // bright magenta
				analytics.ColumnLocal:   "\033[94m",
				analytics.ColumnRemote:  "\033[91m",
				analytics.ColumnBoth:    "\033[92m",
				analytics.ColumnUnknown: "\033[37m",
			},
			Muted: "\033[37m",
			Warn:  "\033[93m",
		}
	}
	return Palette{
		Series: map[analytics.Column]string{
			analytics.ColumnTotal:   "\033[35m",
			analytics.ColumnLocal:   "\033[34m",
			analytics.ColumnRemote:  "\033[31m",
			analytics.ColumnBoth:    "\033[32m",
			analytics.ColumnUnknown: "\033[90m",
		},
		Muted: "\033[90m",
		Warn:  "\033[33m",
	}
}

func (p Palette) paint(color, text string) string {
	if color == "" {
		return text
	}
	return color + text + colorReset
}

// Warning paints text in the palette's warning color.
func (p Palette) Warning(text string) string {
	return p.paint(p.Warn, text)
}

func (p Palette) column(c analytics.Column, text string) string {
	return p.paint(p.Series[c], text)
}

// RenderSeriesTable renders one row per bucket with the series selected by
// filter, labelling periods in the local time zone.
func RenderSeriesTable(buckets []analytics.Bucket, filter analytics.FilterState, granularity analytics.Granularity, p Palette) string {
	return RenderSeriesTableIn(buckets, filter, granularity, p, time.Local)
}

// RenderSeriesTableIn is RenderSeriesTable with an explicit display zone.
func RenderSeriesTableIn(buckets []analytics.Bucket, filter analytics.FilterState, granularity analytics.Granularity, p Palette, loc *time.Location) string {
	if len(buckets) == 0 {
		return "No analytics data available yet.\n"
	}

	columns := analytics.Columns(filter)
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c.Label())
		if widths[i] < 8 {
			widths[i] = 8
		}
	}

	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("%-17s %-9s", "Period", "Label"))
	for i, c := range columns {
		sb.WriteString(" ")
		sb.WriteString(p.column(c, fmt.Sprintf("%*s", widths[i], c.Label())))
	}
	sb.WriteString(fmt.Sprintf(" %9s\n", "Snapshots"))

	lineWidth := 17 + 1 + 9 + 1 + 9
	for _, w := range widths {
		lineWidth += w + 1
	}
	sb.WriteString(p.paint(p.Muted, strings.Repeat("─", lineWidth)))
	sb.WriteString("\n")

	// Rows
	for _, b := range buckets {
		sb.WriteString(fmt.Sprintf("%-17s %-9s",
			b.PeriodStart.In(loc).Format("2006-01-02 15:04"),
			truncate(analytics.AxisLabel(b.PeriodStart, granularity, loc), 9)))
		for i, c := range columns {
			sb.WriteString(" ")
			sb.WriteString(p.column(c, fmt.Sprintf("%*s", widths[i], humanize.Comma(int64(c.Value(b))))))
		}
		sb.WriteString(fmt.Sprintf(" %9d\n", b.SnapshotCount))
	}

	return sb.String()
}

// RenderSummary renders the Total, Local and Remote cards for the latest
// snapshot.
func RenderSummary(snap analytics.Snapshot, p Palette) string {
	cards := []analytics.Column{analytics.ColumnTotal, analytics.ColumnLocal, analytics.ColumnRemote}

	parts := make([]string, 0, len(cards))
	for _, c := range cards {
		parts = append(parts, fmt.Sprintf("%s: %s", c.Label(), p.column(c, humanize.Comma(int64(c.Value(snapshotBucket(snap)))))))
	}
	return strings.Join(parts, " · ") + "\n"
}

// snapshotBucket lets Column.Value read a snapshot's counts.
func snapshotBucket(s analytics.Snapshot) analytics.Bucket {
	return analytics.Bucket{
		LocalCount:   s.LocalCount,
		RemoteCount:  s.RemoteCount,
		TotalCount:   s.TotalCount,
		BothCount:    s.BothCount,
		UnknownCount: s.UnknownCount,
	}
}

// RenderStaleWarning renders the notice shown when cached data stands in
// for a failed fetch. A zero cachedAt renders as "unknown time".
func RenderStaleWarning(cachedAt, now time.Time) string {
	if cachedAt.IsZero() {
		return "Unable to fetch latest analytics. Showing cached data from unknown time.\n"
	}
	return fmt.Sprintf("Unable to fetch latest analytics. Showing cached data from %s (%s).\n",
		cachedAt.Local().Format("2006-01-02 15:04:05"),
		humanize.RelTime(cachedAt, now, "ago", "from now"))
}

// Status is the input to RenderStatus.
type Status struct {
	DBPath    string
	DBSize    int64
	FeedURL   string
	HasCache  bool
	CachedAt  time.Time
	IsStale   bool
	Snapshots int
	Latest    time.Time
	Theme     theme.Theme
}

// RenderStatus renders the cache report printed by the status command.
func RenderStatus(s Status, now time.Time) string {
	const label = "%-14s"
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(label+"%s\n", "Feed:", s.FeedURL))
	sb.WriteString(fmt.Sprintf(label+"%s · %s\n", "Database:", s.DBPath, humanize.Bytes(uint64(s.DBSize))))

	if !s.HasCache {
		sb.WriteString(fmt.Sprintf(label+"empty  (run 'mcpstats show' to fetch analytics)\n", "Cache:"))
	} else {
		freshness := "fresh"
		if s.IsStale {
			freshness = "stale"
		}
		cachedAt := "unknown time"
		if !s.CachedAt.IsZero() {
			cachedAt = humanize.RelTime(s.CachedAt, now, "ago", "from now")
		}
		sb.WriteString(fmt.Sprintf(label+"%s · cached %s · %s snapshots\n",
			"Cache:", freshness, cachedAt, humanize.Comma(int64(s.Snapshots))))
		if !s.Latest.IsZero() {
			sb.WriteString(fmt.Sprintf(label+"%s\n", "Latest:", s.Latest.Local().Format("2006-01-02 15:04")))
		}
	}

	if s.Theme != "" {
		sb.WriteString(fmt.Sprintf(label+"%s\n", "Theme:", s.Theme))
	}
	return sb.String()
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
