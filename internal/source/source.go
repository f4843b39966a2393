// Package source defines the read-only adapter contract over the four
// heterogeneous listing collections (products, notes, rooms, rentals) and
// provides in-memory and PostgreSQL implementations.
package source

import (
	"context"
	"errors"

	"github.com/studxhq/studx/internal/listing"
)

// Common errors for source operations.
var (
	// ErrNotFound indicates a point lookup miss. Feed and sponsorship callers
	// treat it as an empty result, never a hard failure.
	ErrNotFound = errors.New("record not found")

	// ErrNoAdapter indicates a kind with no registered adapter.
	ErrNoAdapter = errors.New("no adapter registered for kind")
)

// FieldTerm is one OR-joined substring predicate over a named text field.
type FieldTerm struct {
	Field string
	Term  string
}

// Filter describes a source query. All predicates are conjunctive except
// OrSubstring, whose entries are OR-joined among themselves.
type Filter struct {
	// Equals holds equality predicates (category, college, seller_id, ...).
	Equals map[string]string

	// ExcludeID excludes a single record id, used by similar-item views.
	ExcludeID string

	// OrSubstring holds case-insensitive substring predicates OR-joined
	// across the named text fields.
	OrSubstring []FieldTerm

	// OrderByCreatedAtDesc requests newest-first ordering.
	OrderByCreatedAtDesc bool

	// Limit caps the result size when > 0.
	Limit int
}

// Adapter queries one listing collection. Implementations are read-only and
// must return an empty (never nil) slice on no match.
type Adapter interface {
	// Kind reports which collection this adapter serves.
	Kind() listing.Kind

	// Fetch returns raw records matching the filter.
	Fetch(ctx context.Context, f Filter) ([]listing.RawRecord, error)

	// Lookup returns a single record by id, or ErrNotFound.
	Lookup(ctx context.Context, id string) (listing.RawRecord, error)
}

// Set maps each kind to its adapter. The aggregation layers fan out over the
// whole set; sponsorship resolution dispatches point lookups into it.
type Set map[listing.Kind]Adapter

// NewSet builds a Set from adapters, keyed by their own reported kind.
func NewSet(adapters ...Adapter) Set {
	set := make(Set, len(adapters))
	for _, a := range adapters {
		set[a.Kind()] = a
	}
	return set
}

// For returns the adapter serving the given kind.
func (s Set) For(kind listing.Kind) (Adapter, error) {
	a, ok := s[kind]
	if !ok {
		return nil, ErrNoAdapter
	}
	return a, nil
}
