package analytics

import (
	"sort"
	"time"
)

// smallDatasetThreshold is the snapshot count below which hourly
// aggregation shows every snapshot on its own.
const smallDatasetThreshold = 10

// lastMillisecond is added to the final second of a period to form its
// inclusive end bound.
const lastMillisecond = 999 * int(time.Millisecond)

// Aggregate groups snapshots into buckets of the given granularity.
//
// With hourly granularity and fewer than ten snapshots, each distinct
// snapshot instant becomes its own bucket. Otherwise snapshots are grouped
// by the UTC start of their period. A bucket carries the counts of the last
// snapshot encountered in input order, so callers should pass snapshots in
// chronological order. The result is sorted by PeriodStart.
func Aggregate(snapshots []Snapshot, granularity Granularity) []Bucket {
	if len(snapshots) == 0 {
		return []Bucket{}
	}

	individual := granularity == Hourly && len(snapshots) < smallDatasetThreshold

	type group struct {
		first Snapshot
		last  Snapshot
		count int
	}

	// keys preserves encounter order so the output does not depend on map
	// iteration before the final sort.
	groups := make(map[int64]*group)
	var keys []int64

	for _, snap := range snapshots {
		var key int64
		if individual {
			key = snap.Timestamp.UnixNano()
		} else {
			key = PeriodStart(snap.Timestamp, granularity).UnixNano()
		}

		g, ok := groups[key]
		if !ok {
			g = &group{first: snap}
			groups[key] = g
			keys = append(keys, key)
		}
		g.last = snap
		g.count++
	}

	result := make([]Bucket, 0, len(keys))
	for _, key := range keys {
		g := groups[key]

		var start, end time.Time
		if individual {
			start = g.first.Timestamp.UTC()
			end = start
		} else {
			start = PeriodStart(g.first.Timestamp, granularity)
			end = PeriodEnd(g.first.Timestamp, granularity)
		}

		result = append(result, Bucket{
			PeriodStart:   start,
			PeriodEnd:     end,
			Granularity:   granularity,
			LocalCount:    g.last.LocalCount,
			RemoteCount:   g.last.RemoteCount,
			TotalCount:    g.last.TotalCount,
			BothCount:     g.last.BothCount,
			UnknownCount:  g.last.UnknownCount,
			SnapshotCount: g.count,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PeriodStart.Before(result[j].PeriodStart)
	})

	return result
}

// PeriodStart rounds t down to the start of its UTC period. Weeks start on
// Monday.
func PeriodStart(t time.Time, granularity Granularity) time.Time {
	t = t.UTC()
	y, m, d := t.Date()

	switch granularity {
	case Hourly:
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, time.UTC)
	case Weekly:
		return time.Date(y, m, d-daysSinceMonday(t), 0, 0, 0, 0, time.UTC)
	case Monthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
}

// PeriodEnd returns the inclusive end of t's UTC period, at millisecond .999
// of its last second.
func PeriodEnd(t time.Time, granularity Granularity) time.Time {
	t = t.UTC()
	y, m, d := t.Date()

	switch granularity {
	case Hourly:
		return time.Date(y, m, d, t.Hour(), 59, 59, lastMillisecond, time.UTC)
	case Weekly:
		return time.Date(y, m, d-daysSinceMonday(t)+6, 23, 59, 59, lastMillisecond, time.UTC)
	case Monthly:
		// Day 0 of the next month normalizes to the last day of this one.
		return time.Date(y, m+1, 0, 23, 59, 59, lastMillisecond, time.UTC)
	default:
		return time.Date(y, m, d, 23, 59, 59, lastMillisecond, time.UTC)
	}
}

// daysSinceMonday maps Sunday=0..Saturday=6 onto Monday=0..Sunday=6.
func daysSinceMonday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
