// Package snapshots maintains the local analytics feed: a JSON array of
// registry count snapshots appended to by mcpstats-snapshot and served to
// mcpstats through a file:// feed URL.
package snapshots

import "time"

// Manager appends to and prunes one feed file.
type Manager struct {
	feedPath string
	now      func() time.Time
}

// New creates a Manager for the feed at feedPath.
func New(feedPath string) *Manager {
	return &Manager{
		feedPath: feedPath,
		now:      time.Now,
	}
}

// Path returns the feed file path.
func (m *Manager) Path() string {
	return m.feedPath
}
