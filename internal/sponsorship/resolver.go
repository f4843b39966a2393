// Package sponsorship resolves the operator-curated sponsored slot sequence
// into normalized listings, preserving curator order, with an explicit
// fallback chain for the legacy single-table featured source.
package sponsorship

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/studxhq/studx/internal/listing"
	"github.com/studxhq/studx/internal/source"
)

// DefaultLookupTimeout bounds the per-kind point lookups during resolution.
const DefaultLookupTimeout = 5 * time.Second

// Slot is one curator-assigned sponsorship entry. Lower slot numbers rank
// first.
type Slot struct {
	Slot   int          `json:"slot"`
	Kind   listing.Kind `json:"kind"`
	ItemID string       `json:"item_id"`
}

// SlotStore reads the ordered slot sequence. The sequence is curated by an
// external tool and read-only here.
type SlotStore interface {
	ListSlots(ctx context.Context) ([]Slot, error)
}

// Resolver resolves slots to normalized listings via point lookups into the
// source adapter set.
type Resolver struct {
	slots   SlotStore
	sources source.Set
	timeout time.Duration
}

// NewResolver creates a Resolver. A zero timeout means DefaultLookupTimeout.
func NewResolver(slots SlotStore, sources source.Set, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &Resolver{slots: slots, sources: sources, timeout: timeout}
}

// Resolve returns the sponsored listings in ascending slot order. Slots whose
// target no longer exists are silently dropped; the list is never re-sorted
// by recency or score downstream.
func (r *Resolver) Resolve(ctx context.Context) ([]listing.Listing, error) {
	slots, err := r.slots.ListSlots(ctx)
	if err != nil {
		return nil, err
	}
	return r.ResolveSlots(ctx, slots)
}

// ResolveSlots resolves an explicit slot list, used both for the primary
// sequence and for legacy fallback tuples.
func (r *Resolver) ResolveSlots(ctx context.Context, slots []Slot) ([]listing.Listing, error) {
	if len(slots) == 0 {
		return []listing.Listing{}, nil
	}

	ordered := make([]Slot, len(slots))
	copy(ordered, slots)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Slot < ordered[j].Slot })

	// Group ids per kind so each adapter is queried from a single goroutine:
	// bounded fan-out of at most one worker per kind.
	idsByKind := make(map[listing.Kind][]string)
	for _, s := range ordered {
		if !s.Kind.Valid() {
			slog.WarnContext(ctx, "skipping sponsorship slot with unknown kind", "slot", s.Slot, "kind", s.Kind)
			continue
		}
		idsByKind[s.Kind] = append(idsByKind[s.Kind], s.ItemID)
	}

	records := make(map[listing.Key]listing.RawRecord)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for kind, ids := range idsByKind {
		adapter, err := r.sources.For(kind)
		if err != nil {
			slog.WarnContext(ctx, "no adapter for sponsored kind", "kind", kind)
			continue
		}

		wg.Add(1)
		go func(kind listing.Kind, adapter source.Adapter, ids []string) {
			defer wg.Done()

			lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			for _, id := range ids {
				rec, err := adapter.Lookup(lookupCtx, id)
				if err != nil {
					if !errors.Is(err, source.ErrNotFound) {
						slog.WarnContext(ctx, "sponsored lookup failed", "kind", kind, "id", id, "error", err)
					}
					continue
				}
				mu.Lock()
				records[listing.Key{Kind: kind, ID: id}] = rec
				mu.Unlock()
			}
		}(kind, adapter, ids)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolved := make([]listing.Listing, 0, len(ordered))
	for _, s := range ordered {
		rec, ok := records[listing.Key{Kind: s.Kind, ID: s.ItemID}]
		if !ok {
			continue
		}
		l, err := listing.Normalize(s.Kind, rec)
		if err != nil {
			slog.WarnContext(ctx, "dropping malformed sponsored record", "kind", s.Kind, "id", s.ItemID, "error", err)
			continue
		}
		rank := s.Slot
		l.IsSponsored = true
		l.SponsoredRank = &rank
		resolved = append(resolved, l)
	}

	return resolved, nil
}
