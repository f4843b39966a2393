// Package listing provides the normalized listing model shared by the feed,
// search and sponsorship layers, plus the per-kind normalization logic that
// maps heterogeneous source records into it.
package listing

import (
	"errors"
	"time"
)

// Common errors for normalization.
var (
	// ErrMissingCreatedAt indicates a source record without a usable creation
	// timestamp. Such records cannot be placed in a recency-ordered feed and
	// are dropped by callers rather than inserted with a synthetic time.
	ErrMissingCreatedAt = errors.New("record has no created_at timestamp")

	// ErrUnknownKind indicates a kind outside the four supported collections.
	ErrUnknownKind = errors.New("unknown listing kind")
)

// Kind discriminates the four source collections.
type Kind string

// Supported listing kinds.
const (
	KindProduct Kind = "product"
	KindNote    Kind = "note"
	KindRoom    Kind = "room"
	KindRental  Kind = "rental"
)

// Kinds returns all supported kinds in a stable order.
func Kinds() []Kind {
	return []Kind{KindProduct, KindNote, KindRoom, KindRental}
}

// Valid reports whether k is one of the four supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindProduct, KindNote, KindRoom, KindRental:
		return true
	}
	return false
}

// RawRecord is a source row as returned by a source adapter, keyed by column
// name. Values keep whatever shape the source reported; normalization is the
// only place that interprets them.
type RawRecord map[string]any

// Listing is the normalized, kind-tagged view over a source record. It is
// treated as immutable once built: enrichment (distance, relevance, sponsor
// rank) happens on copies owned by a single request.
type Listing struct {
	ID          string  `json:"id"`
	Kind        Kind    `json:"kind"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Category    string  `json:"category,omitempty"`
	College     string  `json:"college,omitempty"`
	Location    string  `json:"location,omitempty"`

	// Images is ordered; the first entry is the primary thumbnail.
	Images []string `json:"images"`

	CreatedAt time.Time `json:"created_at"`
	SellerID  string    `json:"seller_id,omitempty"`

	// Extra carries kind-specific attributes (condition, academic_year,
	// course_subject, room_type, amenities, rental_duration, ...) opaquely.
	// The core never interprets these beyond search-field lookups.
	Extra map[string]any `json:"extra,omitempty"`

	// SellerBadge is stamped from the injected privilege map, if any.
	SellerBadge string `json:"seller_badge,omitempty"`

	// CoarseGeohash is a privacy-coarse geohash of the parsed coordinate,
	// populated only when the location parses.
	CoarseGeohash string `json:"coarse_geohash,omitempty"`

	// Sponsorship fields, set only by the sponsorship resolver.
	IsSponsored   bool `json:"is_sponsored,omitempty"`
	SponsoredRank *int `json:"sponsored_rank,omitempty"`

	// Distance from the viewer in kilometers, populated only when a viewer
	// coordinate was supplied and the listing location parsed.
	Distance *float64 `json:"distance_km,omitempty"`

	// RelevanceScore is populated only in search mode.
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
}

// Key identifies a listing uniquely across kinds.
type Key struct {
	Kind Kind
	ID   string
}

// Key returns the (kind, id) identity of the listing.
func (l *Listing) Key() Key {
	return Key{Kind: l.Kind, ID: l.ID}
}

// ExtraString returns the named extra attribute as a string, or "" when it is
// absent or not a string. Used by the relevance scorer for kind-specific
// search fields.
func (l *Listing) ExtraString(key string) string {
	if l.Extra == nil {
		return ""
	}
	if s, ok := l.Extra[key].(string); ok {
		return s
	}
	return ""
}
