package analytics

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day with no time component. The zero Date means
// "no bound".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t, time.UTC), nil
}

// DateOf returns the calendar day of t in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether d is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return other.Before(d)
}

// String formats d as YYYY-MM-DD, or "" when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Range is an inclusive day window. Either bound may be unset. Days of
// snapshot and bucket instants are taken in Location; nil means time.Local.
type Range struct {
	Start    Date
	End      Date
	Location *time.Location
}

// ParseRange builds a Range from YYYY-MM-DD strings; empty strings leave the
// bound open.
func ParseRange(start, end string, loc *time.Location) (Range, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Range{}, fmt.Errorf("invalid start date: %w", err)
	}
	e, err := ParseDate(end)
	if err != nil {
		return Range{}, fmt.Errorf("invalid end date: %w", err)
	}
	if !s.IsZero() && !e.IsZero() && s.After(e) {
		return Range{}, fmt.Errorf("start date %s is after end date %s", s, e)
	}
	return Range{Start: s, End: e, Location: loc}, nil
}

// IsUnbounded reports whether neither bound is set.
func (r Range) IsUnbounded() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r Range) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

// contains reports whether day d lies inside the window.
func (r Range) contains(d Date) bool {
	if !r.Start.IsZero() && d.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && d.After(r.End) {
		return false
	}
	return true
}

// FilterSnapshots keeps snapshots whose local calendar day falls within r.
// An unbounded range returns the input unchanged.
func FilterSnapshots(snapshots []Snapshot, r Range) []Snapshot {
	if r.IsUnbounded() {
		return snapshots
	}

	loc := r.location()
	result := make([]Snapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		if r.contains(DateOf(snap.Timestamp, loc)) {
			result = append(result, snap)
		}
	}
	return result
}

// FilterBuckets keeps buckets whose period overlaps r at day level. A
// bucket is dropped only when it ends before Start or begins after End;
// partially overlapping buckets are kept whole.
func FilterBuckets(buckets []Bucket, r Range) []Bucket {
	if r.IsUnbounded() {
		return buckets
	}

	loc := r.location()
	result := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		if !r.Start.IsZero() && DateOf(b.PeriodEnd, loc).Before(r.Start) {
			continue
		}
		if !r.End.IsZero() && DateOf(b.PeriodStart, loc).After(r.End) {
			continue
		}
		result = append(result, b)
	}
	return result
}
