package listing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTitle is used when no title-like field resolves to a non-empty value.
const DefaultTitle = "Untitled"

// titleFields are tried in order; the first non-empty value wins.
var titleFields = []string{"title", "name", "hostel_name"}

// priceFields are tried in order; the first non-null numeric value wins.
// Rooms report fees, rentals report rental_price.
var priceFields = []string{"price", "fees", "rental_price"}

// extraFields lists the kind-specific attributes retained opaquely per kind.
// This table is the only kind-specific mapping in the whole core.
var extraFields = map[Kind][]string{
	KindProduct: {"condition", "is_sold"},
	KindNote:    {"academic_year", "course_subject", "pdf_urls"},
	KindRoom:    {"room_type", "occupancy", "deposit", "amenities", "mess_fees", "fees_include_mess", "owner_name"},
	KindRental:  {"rental_duration", "condition", "deposit"},
}

// Normalize maps one raw source record into the common Listing shape.
// It is a pure function: the record is never mutated.
//
// A record without a usable created_at is rejected with ErrMissingCreatedAt;
// inserting it with a synthetic "now" would let it queue-jump a recency feed.
// All other malformed fields degrade to zero values rather than failing.
func Normalize(kind Kind, rec RawRecord) (Listing, error) {
	if !kind.Valid() {
		return Listing{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	createdAt, ok := timeValue(rec["created_at"])
	if !ok {
		return Listing{}, fmt.Errorf("%w (kind=%s id=%v)", ErrMissingCreatedAt, kind, rec["id"])
	}

	l := Listing{
		ID:          stringValue(rec["id"]),
		Kind:        kind,
		Title:       resolveTitle(rec),
		Description: stringValue(rec["description"]),
		Price:       resolvePrice(rec),
		Category:    stringValue(rec["category"]),
		College:     stringValue(rec["college"]),
		Location:    stringValue(rec["location"]),
		Images:      imagesValue(rec["images"]),
		CreatedAt:   createdAt,
		SellerID:    stringValue(rec["seller_id"]),
	}

	for _, field := range extraFields[kind] {
		if v, ok := rec[field]; ok && v != nil {
			if l.Extra == nil {
				l.Extra = make(map[string]any)
			}
			l.Extra[field] = v
		}
	}

	return l, nil
}

// resolveTitle falls back across the source-specific name fields.
func resolveTitle(rec RawRecord) string {
	for _, field := range titleFields {
		if s := strings.TrimSpace(stringValue(rec[field])); s != "" {
			return s
		}
	}
	return DefaultTitle
}

// resolvePrice applies the fixed price -> fees -> rental_price priority.
func resolvePrice(rec RawRecord) float64 {
	for _, field := range priceFields {
		v, ok := rec[field]
		if !ok || v == nil {
			continue
		}
		if f, ok := floatValue(v); ok {
			return f
		}
	}
	return 0
}

// stringValue coerces a raw value to string, tolerating numeric ids.
func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	}
	return ""
}

// floatValue coerces a raw value to float64. String prices ("250") parse;
// anything else is not a price.
func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// CreatedAt extracts the creation timestamp from a raw record, reporting
// whether one was present. Source adapters use it for newest-first ordering
// before normalization has run.
func CreatedAt(rec RawRecord) (time.Time, bool) {
	return timeValue(rec["created_at"])
}

// timeValue accepts time.Time or an RFC3339-ish string.
func timeValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// imagesValue coerces the images column into an ordered string slice.
// Absent or malformed values become an empty slice, never an error.
func imagesValue(v any) []string {
	switch imgs := v.(type) {
	case []string:
		out := make([]string, len(imgs))
		copy(out, imgs)
		return out
	case []any:
		out := make([]string, 0, len(imgs))
		for _, img := range imgs {
			if s, ok := img.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if imgs == "" {
			return []string{}
		}
		return []string{imgs}
	}
	return []string{}
}
