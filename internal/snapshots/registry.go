package snapshots

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/blackwell-systems/mcpstats/internal/analytics"
)

// registryEntry accepts both a bare server object and the registry API's
// {"server": {...}} wrapper.
type registryEntry struct {
	analytics.Server
	Wrapped *analytics.Server `json:"server"`
}

func (e registryEntry) server() analytics.Server {
	if e.Wrapped != nil {
		return *e.Wrapped
	}
	return e.Server
}

// ReadRegistry decodes registry server listings. The input is either a JSON
// array of servers or an object with a "servers" array.
func ReadRegistry(r io.Reader) ([]analytics.Server, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry data: %w", err)
	}

	var entries []registryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		var page struct {
			Servers []registryEntry `json:"servers"`
		}
		if err2 := json.Unmarshal(data, &page); err2 != nil || page.Servers == nil {
			return nil, fmt.Errorf("failed to parse registry data: expected an array or {\"servers\": [...]}: %w", err)
		}
		entries = page.Servers
	}

	servers := make([]analytics.Server, 0, len(entries))
	for _, e := range entries {
		servers = append(servers, e.server())
	}
	return servers, nil
}
