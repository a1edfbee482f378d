// Package analytics turns registry count snapshots into chart-ready series.
//
// The pipeline is pure and synchronous:
//
//	FilterSnapshots -> Aggregate -> Decimate -> FilterBuckets
//
// Bucket boundaries are always computed in UTC. Range filtering works on
// calendar days in the evaluating time zone (Range.Location), which defaults
// to the host's local zone.
package analytics

import (
	"fmt"
	"strings"
	"time"
)

// Snapshot is one point-in-time count record from the registry feed.
type Snapshot struct {
	Timestamp    time.Time `json:"timestamp"`
	LocalCount   int       `json:"localCount"`
	RemoteCount  int       `json:"remoteCount"`
	TotalCount   int       `json:"totalCount"`
	BothCount    int       `json:"bothCount"`
	UnknownCount int       `json:"unknownCount"`
}

// Bucket is the representative of one aggregation period.
type Bucket struct {
	PeriodStart   time.Time   `json:"periodStart"`
	PeriodEnd     time.Time   `json:"periodEnd"`
	Granularity   Granularity `json:"granularity"`
	LocalCount    int         `json:"localCount"`
	RemoteCount   int         `json:"remoteCount"`
	TotalCount    int         `json:"totalCount"`
	BothCount     int         `json:"bothCount"`
	UnknownCount  int         `json:"unknownCount"`
	SnapshotCount int         `json:"snapshotCount"`
}

// Granularity selects the bucket width.
type Granularity string

const (
	Hourly  Granularity = "hourly"
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// Granularities lists every supported granularity, narrowest first.
var Granularities = []Granularity{Hourly, Daily, Weekly, Monthly}

// ParseGranularity validates a granularity name (case-insensitive).
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Granularities {
		if g == known {
			return g, nil
		}
	}
	return "", fmt.Errorf("invalid granularity %q (must be hourly, daily, weekly, or monthly)", s)
}

// ServerType is the classification label of a registry entry.
type ServerType string

const (
	ServerLocal   ServerType = "local"
	ServerRemote  ServerType = "remote"
	ServerBoth    ServerType = "both"
	ServerUnknown ServerType = "unknown"
)

// FilterState selects which count series are shown.
type FilterState string

const (
	FilterAll     FilterState = "all"
	FilterLocal   FilterState = "local"
	FilterRemote  FilterState = "remote"
	FilterShowAll FilterState = "show-all"
)

// ParseFilter validates a filter name.
func ParseFilter(s string) (FilterState, error) {
	switch f := FilterState(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterAll, FilterLocal, FilterRemote, FilterShowAll:
		return f, nil
	}
	return "", fmt.Errorf("invalid filter %q (must be all, local, remote, or show-all)", s)
}
