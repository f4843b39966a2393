package geo

import (
	"math"
	"testing"
)

func TestParsePoint(t *testing.T) {
	tests := []struct {
		name     string
		location string
		want     *Point
	}{
		{
			name:     "json object",
			location: `{"lat": 19.076, "lng": 72.8777}`,
			want:     &Point{Lat: 19.076, Lng: 72.8777},
		},
		{
			name:     "comma pair",
			location: "19.076,72.8777",
			want:     &Point{Lat: 19.076, Lng: 72.8777},
		},
		{
			name:     "comma pair with spaces",
			location: " 19.076 , 72.8777 ",
			want:     &Point{Lat: 19.076, Lng: 72.8777},
		},
		{name: "empty", location: "", want: nil},
		{name: "whitespace only", location: "   ", want: nil},
		{name: "malformed json", location: `{"lat": }`, want: nil},
		{name: "json zero-zero", location: `{"lat": 0, "lng": 0}`, want: nil},
		{name: "free text", location: "near the main gate", want: nil},
		{name: "too many parts", location: "19,72,5", want: nil},
		{name: "out of range lat", location: "120,72", want: nil},
		{name: "out of range lng", location: "19,200", want: nil},
		{name: "non-numeric pair", location: "lat,lng", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePoint(tt.location)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a point, got nil")
			}
			if got.Lat != tt.want.Lat || got.Lng != tt.want.Lng {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestPoint_Valid(t *testing.T) {
	valid := []Point{{0, 0}, {90, 180}, {-90, -180}, {19.076, 72.8777}}
	for _, p := range valid {
		if !p.Valid() {
			t.Errorf("expected %+v to be valid", p)
		}
	}
	invalid := []Point{{91, 0}, {-91, 0}, {0, 181}, {0, -181}}
	for _, p := range invalid {
		if p.Valid() {
			t.Errorf("expected %+v to be invalid", p)
		}
	}
}

func TestDistance(t *testing.T) {
	// Mumbai to Pune is roughly 120 km great-circle.
	mumbai := Point{Lat: 19.076, Lng: 72.8777}
	pune := Point{Lat: 18.5204, Lng: 73.8567}

	d := Distance(mumbai, pune)
	if d < 115 || d > 125 {
		t.Errorf("expected ~120 km, got %f", d)
	}

	// Symmetric.
	if back := Distance(pune, mumbai); math.Abs(back-d) > 1e-9 {
		t.Errorf("expected symmetric distance, got %f vs %f", d, back)
	}

	// Identity.
	if same := Distance(mumbai, mumbai); same != 0 {
		t.Errorf("expected 0 for identical points, got %f", same)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name      string
		lat, lng  float64
		precision int
		want      string
	}{
		// Well-known geohash reference value.
		{name: "ezs42", lat: 42.605, lng: -5.603, precision: 5, want: "ezs42"},
		{name: "mumbai", lat: 19.076, lng: 72.8777, precision: 6, want: "te7ud2"},
		{name: "origin", lat: 0, lng: 0, precision: 4, want: "7zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.lat, tt.lng, tt.precision)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestEncode_DefaultPrecision(t *testing.T) {
	got := Encode(19.076, 72.8777, 0)
	if len(got) != DefaultPrecision {
		t.Errorf("expected %d characters, got %q", DefaultPrecision, got)
	}
}
