// Package privilege provides the injected privileged-seller configuration.
// The map is loaded once at startup and passed into the ranking layers
// explicitly; there is no module-level mutable state.
package privilege

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/studxhq/studx/internal/listing"
)

// Descriptor describes the display privileges of one seller.
type Descriptor struct {
	Name            string `json:"name"`
	Badge           string `json:"badge"`
	PriorityDisplay bool   `json:"priority_display"`
}

// Map associates seller ids with their privilege descriptors.
type Map map[string]Descriptor

// Load reads a privilege map from a JSON file. An empty path yields an empty
// map; a missing or malformed file is an error so misconfiguration surfaces
// at startup rather than as silently unstyled listings.
func Load(path string) (Map, error) {
	if path == "" {
		return Map{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read privilege file: %w", err)
	}

	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse privilege file %s: %w", path, err)
	}
	return m, nil
}

// Stamp applies seller badges to listings in place.
func (m Map) Stamp(items []listing.Listing) {
	if len(m) == 0 {
		return
	}
	for i := range items {
		if d, ok := m[items[i].SellerID]; ok {
			items[i].SellerBadge = d.Badge
		}
	}
}
