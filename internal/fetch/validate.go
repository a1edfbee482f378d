package fetch

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/blackwell-systems/mcpstats/internal/analytics"
)

var countFields = []string{"localCount", "remoteCount", "totalCount", "bothCount", "unknownCount"}

// Decode validates a feed body and converts it into snapshots. The body
// must be a JSON array of objects, each with a string RFC3339 timestamp and
// all five counts as non-negative whole numbers. Failures wrap
// ErrInvalidResponse.
func Decode(body []byte) ([]analytics.Snapshot, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: expected a JSON array: %v", ErrInvalidResponse, err)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: expected a JSON array, got null", ErrInvalidResponse)
	}

	snapshots := make([]analytics.Snapshot, 0, len(items))
	for i, item := range items {
		snap, err := decodeSnapshot(item)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrInvalidResponse, i, err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

func decodeSnapshot(raw json.RawMessage) (analytics.Snapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return analytics.Snapshot{}, fmt.Errorf("expected an object")
	}

	var ts string
	if err := json.Unmarshal(fields["timestamp"], &ts); err != nil {
		return analytics.Snapshot{}, fmt.Errorf("timestamp must be a string")
	}
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return analytics.Snapshot{}, fmt.Errorf("timestamp %q is not RFC3339", ts)
	}

	counts := make(map[string]int, len(countFields))
	for _, name := range countFields {
		n, err := decodeCount(fields[name])
		if err != nil {
			return analytics.Snapshot{}, fmt.Errorf("%s %v", name, err)
		}
		counts[name] = n
	}

	return analytics.Snapshot{
		Timestamp:    parsed,
		LocalCount:   counts["localCount"],
		RemoteCount:  counts["remoteCount"],
		TotalCount:   counts["totalCount"],
		BothCount:    counts["bothCount"],
		UnknownCount: counts["unknownCount"],
	}, nil
}

func decodeCount(raw json.RawMessage) (int, error) {
	if raw == nil || string(raw) == "null" {
		return 0, fmt.Errorf("is missing")
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("must be a number")
	}
	if f < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("must be a whole number")
	}
	if f > math.MaxInt32 {
		return 0, fmt.Errorf("is out of range")
	}
	return int(f), nil
}
