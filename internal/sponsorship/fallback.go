package sponsorship

import (
	"context"
	"log/slog"

	"github.com/studxhq/studx/internal/listing"
)

// Strategy is one step in the featured-listings fallback chain. ok reports
// whether this strategy produced a usable result; a false means try the next
// one, never an error page.
type Strategy interface {
	Featured(ctx context.Context) (items []listing.Listing, ok bool)
}

// FeaturedService tries an explicit ordered list of strategies in sequence.
type FeaturedService struct {
	strategies []Strategy
}

// NewFeaturedService creates a FeaturedService over the given chain.
func NewFeaturedService(strategies ...Strategy) *FeaturedService {
	return &FeaturedService{strategies: strategies}
}

// Featured returns the first non-empty strategy result, or an empty list if
// every strategy comes up dry. A broken curation table yields an empty
// featured rail, not an error.
func (f *FeaturedService) Featured(ctx context.Context) []listing.Listing {
	for _, s := range f.strategies {
		if items, ok := s.Featured(ctx); ok {
			return items
		}
	}
	return []listing.Listing{}
}

// SlotStrategy serves featured listings from the primary slot sequence.
type SlotStrategy struct {
	Resolver *Resolver
}

// Featured resolves the slot sequence; not ok when the sequence is empty or
// resolution fails.
func (s *SlotStrategy) Featured(ctx context.Context) ([]listing.Listing, bool) {
	items, err := s.Resolver.Resolve(ctx)
	if err != nil {
		slog.WarnContext(ctx, "slot sequence unavailable, falling back", "error", err)
		return nil, false
	}
	if len(items) == 0 {
		return nil, false
	}
	return items, true
}

// LegacyStore reads the legacy single-table featured source that predates the
// slot sequence.
type LegacyStore interface {
	ListFeatured(ctx context.Context) ([]Slot, error)
}

// LegacyStrategy serves featured listings from the legacy featured table.
type LegacyStrategy struct {
	Store    LegacyStore
	Resolver *Resolver
}

// Featured resolves the legacy tuples through the same resolver machinery.
func (s *LegacyStrategy) Featured(ctx context.Context) ([]listing.Listing, bool) {
	slots, err := s.Store.ListFeatured(ctx)
	if err != nil {
		slog.WarnContext(ctx, "legacy featured source unavailable", "error", err)
		return nil, false
	}
	if len(slots) == 0 {
		return nil, false
	}
	items, err := s.Resolver.ResolveSlots(ctx, slots)
	if err != nil || len(items) == 0 {
		return nil, false
	}
	return items, true
}
