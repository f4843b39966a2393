package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/studxhq/studx/internal/geo"
)

// parsePositiveInt parses a query parameter as a positive integer,
// falling back to def when the parameter is absent.
func parsePositiveInt(query url.Values, key string, def int) (int, error) {
	raw := query.Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return v, nil
}

// parseViewer extracts an optional viewer location from lat/lng query
// parameters. Both must be present together; a lone parameter is an error.
func parseViewer(query url.Values) (*geo.Point, error) {
	latStr := strings.TrimSpace(query.Get("lat"))
	lngStr := strings.TrimSpace(query.Get("lng"))

	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, fmt.Errorf("lat and lng must be provided together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("lat must be a valid number")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, fmt.Errorf("lng must be a valid number")
	}

	p := geo.Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		return nil, fmt.Errorf("lat must be between -90 and 90 and lng between -180 and 180")
	}
	return &p, nil
}
