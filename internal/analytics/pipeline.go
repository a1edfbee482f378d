package analytics

import "time"

// Options controls one Build run.
type Options struct {
	Granularity Granularity
	Range       Range
	MaxPoints   int
}

// Build runs the full chart pipeline: raw range filter, aggregation,
// decimation, then a second range filter over the buckets to drop periods
// the aggregation stretched outside the window.
func Build(snapshots []Snapshot, opts Options) []Bucket {
	granularity := opts.Granularity
	if granularity == "" {
		granularity = Daily
	}

	filtered := FilterSnapshots(snapshots, opts.Range)
	buckets := Aggregate(filtered, granularity)
	buckets = Decimate(buckets, opts.MaxPoints)
	return FilterBuckets(buckets, opts.Range)
}

// Latest returns the last snapshot in the slice, which the feed orders
// chronologically.
func Latest(snapshots []Snapshot) (Snapshot, bool) {
	if len(snapshots) == 0 {
		return Snapshot{}, false
	}
	return snapshots[len(snapshots)-1], true
}

// Bounds returns the earliest and latest calendar days present in
// snapshots, evaluated in loc (nil means time.Local).
func Bounds(snapshots []Snapshot, loc *time.Location) (minDay, maxDay Date, ok bool) {
	if len(snapshots) == 0 {
		return Date{}, Date{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	lo, hi := snapshots[0].Timestamp, snapshots[0].Timestamp
	for _, snap := range snapshots[1:] {
		if snap.Timestamp.Before(lo) {
			lo = snap.Timestamp
		}
		if snap.Timestamp.After(hi) {
			hi = snap.Timestamp
		}
	}
	return DateOf(lo, loc), DateOf(hi, loc), true
}
