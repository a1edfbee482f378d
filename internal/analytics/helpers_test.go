package analytics

import (
	"testing"
	"time"
)

// mustTime parses an RFC3339 timestamp or fails the test.
func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", s, err)
	}
	return ts
}

// newSnapshot builds a snapshot whose counts are all derived from local so
// tests can tell snapshots apart by a single number.
func newSnapshot(t *testing.T, ts string, local int) Snapshot {
	t.Helper()
	return Snapshot{
		Timestamp:    mustTime(t, ts),
		LocalCount:   local,
		RemoteCount:  local + 1,
		TotalCount:   local + 2,
		BothCount:    local + 3,
		UnknownCount: local + 4,
	}
}

// withLocal swaps time.Local for the duration of a test.
func withLocal(t *testing.T, loc *time.Location) {
	t.Helper()
	old := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = old })
}
