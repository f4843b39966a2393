// Package feed aggregates the four listing collections into one logically
// ordered, paginated view. It fans out to the source adapters concurrently,
// normalizes each record, applies distance-aware ordering, and slices pages
// against the merged feed.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/studxhq/studx/internal/geo"
	"github.com/studxhq/studx/internal/listing"
	"github.com/studxhq/studx/internal/privilege"
	"github.com/studxhq/studx/internal/source"
)

// DefaultAdapterTimeout bounds each individual source fetch so one slow
// collection cannot stall the whole feed.
const DefaultAdapterTimeout = 5 * time.Second

// Options configures an Aggregator.
type Options struct {
	// AdapterTimeout applies per source fetch. Zero means DefaultAdapterTimeout.
	AdapterTimeout time.Duration

	// Privileges is the injected seller-privilege map; may be empty.
	Privileges privilege.Map
}

// Aggregator builds merged feeds over a set of source adapters. It holds no
// per-request state; every operation is a pipeline over its own fetched data.
type Aggregator struct {
	sources    source.Set
	timeout    time.Duration
	privileges privilege.Map
}

// New creates an Aggregator over the given adapter set.
func New(sources source.Set, opts Options) *Aggregator {
	timeout := opts.AdapterTimeout
	if timeout <= 0 {
		timeout = DefaultAdapterTimeout
	}
	return &Aggregator{
		sources:    sources,
		timeout:    timeout,
		privileges: opts.Privileges,
	}
}

// BuildFeed returns one page of the merged, recency-ordered feed.
//
// Each source is fetched newest-first with limit page*pageSize+1: since
// sources are independently ordered, the first N global items are only
// guaranteed correct if at least the first N of every source are pulled, and
// the extra item lets the merged length exceed the page boundary so hasMore
// stays truthful even when one source supplies the entire window. Offsets are
// then computed against the merged, re-sorted feed.
//
// A failed source degrades the feed instead of failing it; cancellation
// aborts the whole operation.
func (a *Aggregator) BuildFeed(ctx context.Context, page, pageSize int, viewer *geo.Point) ([]listing.Listing, bool, error) {
	if page < 1 {
		return nil, false, fmt.Errorf("%w: page must be >= 1 (got %d)", ErrInvalidRequest, page)
	}
	if pageSize < 1 {
		return nil, false, fmt.Errorf("%w: page size must be >= 1 (got %d)", ErrInvalidRequest, pageSize)
	}

	filter := func(listing.Kind) source.Filter {
		return source.Filter{
			OrderByCreatedAtDesc: true,
			Limit:                page*pageSize + 1,
		}
	}

	items, err := a.FetchAll(ctx, filter)
	if err != nil {
		return nil, false, err
	}

	AnnotateLocation(items, viewer)
	SortListings(items, viewer != nil)
	a.privileges.Stamp(items)

	return Paginate(items, page, pageSize)
}

// SimilarListings returns one page of listings of the same kind sharing a
// category (products, notes, rentals) or college (rooms), excluding the item
// being viewed. Same filter-then-slice contract as BuildFeed, over one kind.
func (a *Aggregator) SimilarListings(ctx context.Context, kind listing.Kind, category, college, excludeID string, page, pageSize int) ([]listing.Listing, bool, error) {
	if page < 1 || pageSize < 1 {
		return nil, false, fmt.Errorf("%w: page and page size must be >= 1", ErrInvalidRequest)
	}

	adapter, err := a.sources.For(kind)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s", ErrInvalidRequest, kind)
	}

	equals := map[string]string{}
	switch kind {
	case listing.KindRoom:
		if college == "" {
			return nil, false, fmt.Errorf("%w: college is required for room listings", ErrInvalidRequest)
		}
		equals["college"] = college
	default:
		if category == "" {
			return nil, false, fmt.Errorf("%w: category is required for %s listings", ErrInvalidRequest, kind)
		}
		equals["category"] = category
	}

	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	records, err := adapter.Fetch(fetchCtx, source.Filter{
		Equals:               equals,
		ExcludeID:            excludeID,
		OrderByCreatedAtDesc: true,
		Limit:                page*pageSize + 1,
	})
	if err != nil {
		return nil, false, fmt.Errorf("fetch similar %s listings: %w", kind, err)
	}

	items := normalizeAll(ctx, kind, records)
	SortListings(items, false)
	a.privileges.Stamp(items)

	return Paginate(items, page, pageSize)
}

// SellerListings returns every listing by one seller across all kinds,
// newest first, optionally excluding a single (kind, id) pair, the item
// whose detail page is asking.
func (a *Aggregator) SellerListings(ctx context.Context, sellerID, excludeID string, excludeKind listing.Kind) ([]listing.Listing, error) {
	if sellerID == "" {
		return nil, fmt.Errorf("%w: seller id is required", ErrInvalidRequest)
	}

	filter := func(listing.Kind) source.Filter {
		return source.Filter{
			Equals:               map[string]string{"seller_id": sellerID},
			OrderByCreatedAtDesc: true,
		}
	}

	items, err := a.FetchAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	if excludeID != "" {
		filtered := items[:0]
		for _, l := range items {
			if l.ID == excludeID && l.Kind == excludeKind {
				continue
			}
			filtered = append(filtered, l)
		}
		items = filtered
	}

	SortListings(items, false)
	a.privileges.Stamp(items)
	return items, nil
}

// FetchAll fans out one fetch per kind, normalizes the results, and merges
// them with (kind, id) duplicate suppression. Adapter failures are logged and
// absorbed so one failing collection never blanks the whole response; only
// caller cancellation aborts.
func (a *Aggregator) FetchAll(ctx context.Context, filterFor func(listing.Kind) source.Filter) ([]listing.Listing, error) {
	type result struct {
		kind    listing.Kind
		records []listing.RawRecord
		err     error
	}

	results := make([]result, 0, len(a.sources))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for kind, adapter := range a.sources {
		wg.Add(1)
		go func(kind listing.Kind, adapter source.Adapter) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			records, err := adapter.Fetch(fetchCtx, filterFor(kind))

			mu.Lock()
			results = append(results, result{kind: kind, records: records, err: err})
			mu.Unlock()
		}(kind, adapter)
	}
	wg.Wait()

	// Partial results are never returned on cancellation.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := make([]listing.Listing, 0)
	seen := make(map[listing.Key]bool)
	for _, res := range results {
		if res.err != nil {
			slog.WarnContext(ctx, "source unavailable, serving degraded feed",
				"kind", res.kind, "error", res.err)
			continue
		}
		for _, l := range normalizeAll(ctx, res.kind, res.records) {
			if seen[l.Key()] {
				continue
			}
			seen[l.Key()] = true
			merged = append(merged, l)
		}
	}

	return merged, nil
}

// normalizeAll maps raw records into listings, dropping malformed ones with
// a warning.
func normalizeAll(ctx context.Context, kind listing.Kind, records []listing.RawRecord) []listing.Listing {
	items := make([]listing.Listing, 0, len(records))
	for _, rec := range records {
		l, err := listing.Normalize(kind, rec)
		if err != nil {
			slog.WarnContext(ctx, "dropping malformed record", "kind", kind, "error", err)
			continue
		}
		items = append(items, l)
	}
	return items
}

// AnnotateLocation parses each listing's coordinate, stamping the coarse
// geohash and, when a viewer location is present, the great-circle distance.
func AnnotateLocation(items []listing.Listing, viewer *geo.Point) {
	for i := range items {
		point := geo.ParsePoint(items[i].Location)
		if point == nil {
			continue
		}
		items[i].CoarseGeohash = geo.Encode(point.Lat, point.Lng, geo.DefaultPrecision)
		if viewer != nil {
			d := geo.Distance(*viewer, *point)
			items[i].Distance = &d
		}
	}
}
