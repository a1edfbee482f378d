// Package cache keeps the last good analytics feed response so the CLI can
// fall back to it when the feed is unreachable.
package cache

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/blackwell-systems/mcpstats/internal/analytics"
)

const (
	// DataKey holds the JSON-encoded snapshot array.
	DataKey = "mcp-analytics-cache"
	// TimestampKey holds the capture instant as Unix milliseconds.
	TimestampKey = "mcp-analytics-cache-timestamp"

	// StaleAfter is the age beyond which cached data is reported stale.
	StaleAfter = 5 * time.Minute
)

// KV is the key/value surface the cache persists through.
type KV interface {
	Get(key string) (string, bool, error)
	SetAll(values map[string]string) error
}

// Staleness describes the age of the cached data.
type Staleness struct {
	CachedAt time.Time
	Age      time.Duration
	IsStale  bool
}

// Store reads and writes the analytics cache.
type Store struct {
	kv  KV
	now func() time.Time
}

// New returns a Store over kv. A nil now uses time.Now.
func New(kv KV, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{kv: kv, now: now}
}

// Write replaces the cached data and its capture time in one update.
func (s *Store) Write(snapshots []analytics.Snapshot) error {
	if snapshots == nil {
		snapshots = []analytics.Snapshot{}
	}
	data, err := json.Marshal(snapshots)
	if err != nil {
		return fmt.Errorf("failed to encode snapshots: %w", err)
	}

	err = s.kv.SetAll(map[string]string{
		DataKey:      string(data),
		TimestampKey: strconv.FormatInt(s.now().UnixMilli(), 10),
	})
	if err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// ReadStale returns the cached snapshots regardless of age. Missing or
// corrupt data reports false. An empty stored array is a hit.
func (s *Store) ReadStale() ([]analytics.Snapshot, bool) {
	raw, ok, err := s.kv.Get(DataKey)
	if err != nil || !ok {
		return nil, false
	}

	var snapshots []analytics.Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshots); err != nil {
		return nil, false
	}
	if snapshots == nil {
		// "null" is not an array
		return nil, false
	}
	return snapshots, true
}

// ReadTimestamp returns when the cache was last written.
func (s *Store) ReadTimestamp() (time.Time, bool) {
	raw, ok, err := s.kv.Get(TimestampKey)
	if err != nil || !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// StalenessInfo reports the cache age. Stale entries are kept.
func (s *Store) StalenessInfo() (Staleness, bool) {
	ts, ok := s.ReadTimestamp()
	if !ok {
		return Staleness{}, false
	}
	age := s.now().Sub(ts)
	return Staleness{
		CachedAt: ts,
		Age:      age,
		IsStale:  age > StaleAfter,
	}, true
}
