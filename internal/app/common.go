package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/blackwell-systems/mcpstats/internal/analytics"
	"github.com/blackwell-systems/mcpstats/internal/cache"
	"github.com/blackwell-systems/mcpstats/internal/fetch"
	"github.com/blackwell-systems/mcpstats/internal/output"
	"github.com/blackwell-systems/mcpstats/internal/store"
	"github.com/blackwell-systems/mcpstats/internal/theme"
)

// openStore opens the database from the resolved config, creating its
// directory and schema if needed.
func openStore() (*store.Store, error) {
	if cfg.DB != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DB), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	st, err := store.New(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// retryDelays is handed to every orchestrator; nil keeps the fetch
// defaults.
var retryDelays []time.Duration

// newOrchestrator wires the feed fetcher to the cache held in st.
func newOrchestrator(st *store.Store) (*fetch.Orchestrator, *cache.Store, error) {
	cs := cache.New(st, nil)
	orch, err := fetch.New(fetch.Config{
		FeedURL:     cfg.FeedURL,
		Client:      fetch.DefaultClient(),
		Cache:       cs,
		Logger:      logger,
		RetryDelays: retryDelays,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create fetcher: %w", err)
	}
	return orch, cs, nil
}

// viewOptions is what show and watch render.
type viewOptions struct {
	granularity analytics.Granularity
	filter      analytics.FilterState
	rng         analytics.Range
	maxPoints   int
	json        bool
}

// resolveView validates the configured granularity and filter along with
// the requested day range.
func resolveView(start, end string, asJSON bool) (viewOptions, error) {
	g, err := analytics.ParseGranularity(cfg.Granularity)
	if err != nil {
		return viewOptions{}, err
	}
	f, err := analytics.ParseFilter(cfg.Filter)
	if err != nil {
		return viewOptions{}, err
	}
	rng, err := analytics.ParseRange(start, end, time.Local)
	if err != nil {
		return viewOptions{}, err
	}
	return viewOptions{
		granularity: g,
		filter:      f,
		rng:         rng,
		maxPoints:   cfg.MaxPoints,
		json:        asJSON,
	}, nil
}

// palette picks table colors from the stored or system theme.
func palette(st *store.Store) output.Palette {
	return output.PaletteFor(theme.Initial(st, os.Getenv), output.IsColorEnabled())
}

// renderAnalytics writes one loaded result. The stale warning goes to errw
// so --json output stays parseable.
func renderAnalytics(out, errw io.Writer, res fetch.Result, view viewOptions, p output.Palette, now time.Time) error {
	if res.Stale {
		fmt.Fprint(errw, p.Warning(output.RenderStaleWarning(res.CachedAt, now)))
	}

	buckets := analytics.Build(res.Snapshots, analytics.Options{
		Granularity: view.granularity,
		Range:       view.rng,
		MaxPoints:   view.maxPoints,
	})

	if view.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(buckets); err != nil {
			return fmt.Errorf("failed to encode buckets: %w", err)
		}
		return nil
	}

	if latest, ok := analytics.Latest(res.Snapshots); ok {
		fmt.Fprintln(out, output.RenderSummary(latest, p))
	}
	fmt.Fprint(out, output.RenderSeriesTable(buckets, view.filter, view.granularity, p))
	return nil
}
