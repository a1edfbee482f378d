package analytics

import (
	"encoding/json"
	"time"
)

// Server is the subset of a registry entry the classifier reads. Packages
// and Remotes are kept raw; only their presence matters.
type Server struct {
	Name     string            `json:"name,omitempty"`
	Packages []json.RawMessage `json:"packages,omitempty"`
	Remotes  []json.RawMessage `json:"remotes,omitempty"`
}

// Classify labels a server by its declared capability lists.
// Both lists non-empty wins over either one alone.
func Classify(s Server) ServerType {
	hasPackages := len(s.Packages) > 0
	hasRemotes := len(s.Remotes) > 0

	switch {
	case hasPackages && hasRemotes:
		return ServerBoth
	case hasPackages:
		return ServerLocal
	case hasRemotes:
		return ServerRemote
	default:
		return ServerUnknown
	}
}

// Tally classifies every server and folds the result into one snapshot
// taken at the given instant.
//
// LocalCount and RemoteCount include servers that are both. TotalCount is
// every server with at least one capability list, so unknown entries are
// excluded from it.
func Tally(servers []Server, at time.Time) Snapshot {
	snap := Snapshot{Timestamp: at.UTC()}

	for _, s := range servers {
		switch Classify(s) {
		case ServerBoth:
			snap.BothCount++
			snap.LocalCount++
			snap.RemoteCount++
		case ServerLocal:
			snap.LocalCount++
		case ServerRemote:
			snap.RemoteCount++
		case ServerUnknown:
			snap.UnknownCount++
		}
	}

	snap.TotalCount = snap.LocalCount + snap.RemoteCount - snap.BothCount
	return snap
}
