// Package geo provides coordinate parsing and distance utilities for
// distance-aware feed ordering, plus coarse geohash encoding for map display.
package geo

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// earthRadiusKm is the mean radius of the Earth in kilometers.
const earthRadiusKm = 6371

// Point represents a geographic coordinate with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point is within coordinate bounds.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// ParsePoint parses a listing location into a coordinate. Locations are
// free-form in the source tables: either a JSON object {"lat":..,"lng":..}
// or a "lat,lng" string. Anything else returns nil: an unparsable location
// is a record-level degradation, never a fetch failure.
func ParsePoint(location string) *Point {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil
	}

	if strings.HasPrefix(location, "{") {
		var p Point
		if err := json.Unmarshal([]byte(location), &p); err == nil && p.Valid() && (p.Lat != 0 || p.Lng != 0) {
			return &p
		}
		return nil
	}

	parts := strings.Split(location, ",")
	if len(parts) != 2 {
		return nil
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	p := Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		return nil
	}
	return &p
}

// Distance returns the great-circle distance between two points in
// kilometers, using the haversine formula.
func Distance(a, b Point) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
