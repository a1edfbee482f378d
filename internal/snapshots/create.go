package snapshots

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/blackwell-systems/mcpstats/internal/analytics"
	"github.com/blackwell-systems/mcpstats/internal/fetch"
)

// Record classifies servers into a snapshot taken now and appends it.
func (m *Manager) Record(servers []analytics.Server) (analytics.Snapshot, error) {
	snap := analytics.Tally(servers, m.now().UTC())
	if err := m.Append(snap); err != nil {
		return analytics.Snapshot{}, err
	}
	return snap, nil
}

// Append adds snap to the feed, keeping it ordered by timestamp. The file
// is replaced atomically.
func (m *Manager) Append(snap analytics.Snapshot) error {
	existing, err := m.Load()
	if err != nil {
		return err
	}

	existing = append(existing, snap)
	sort.SliceStable(existing, func(i, j int) bool {
		return existing[i].Timestamp.Before(existing[j].Timestamp)
	})
	return m.write(existing)
}

// Load reads the feed. A missing file is an empty feed.
func (m *Manager) Load() ([]analytics.Snapshot, error) {
	data, err := os.ReadFile(m.feedPath)
	if errors.Is(err, os.ErrNotExist) {
		return []analytics.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}

	snapshots, err := fetch.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed %s: %w", m.feedPath, err)
	}
	return snapshots, nil
}

// Prune drops snapshots older than retain and returns how many were
// removed. A non-positive retain keeps everything.
func (m *Manager) Prune(retain time.Duration) (int, error) {
	if retain <= 0 {
		return 0, nil
	}

	snapshots, err := m.Load()
	if err != nil {
		return 0, err
	}

	cutoff := m.now().Add(-retain)
	kept := snapshots[:0]
	for _, s := range snapshots {
		if !s.Timestamp.Before(cutoff) {
			kept = append(kept, s)
		}
	}

	removed := len(snapshots) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, m.write(kept)
}

// write replaces the feed via a temp-file rename in the same directory so
// readers never see a partial file.
func (m *Manager) write(snapshots []analytics.Snapshot) error {
	dir := filepath.Dir(m.feedPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create feed directory: %w", err)
	}

	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal feed: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".feed-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp feed file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp feed file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp feed file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set feed permissions: %w", err)
	}
	if err := os.Rename(tmpPath, m.feedPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename feed file: %w", err)
	}
	return nil
}
