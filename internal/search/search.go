package search

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/studxhq/studx/internal/feed"
	"github.com/studxhq/studx/internal/geo"
	"github.com/studxhq/studx/internal/listing"
	"github.com/studxhq/studx/internal/privilege"
	"github.com/studxhq/studx/internal/source"
)

// searchFields lists, per kind, the text columns the candidate prefilter
// queries with OR-joined substring predicates. The scorer then does the
// fine-grained per-token weighting in memory.
var searchFields = map[listing.Kind][]string{
	listing.KindProduct: {"title", "description", "category"},
	listing.KindNote:    {"title", "description", "category", "course_subject"},
	listing.KindRoom:    {"title", "hostel_name", "description", "category", "location", "room_type"},
	listing.KindRental:  {"name", "description", "category"},
}

// SponsoredProvider resolves the curator-ordered sponsored listings.
type SponsoredProvider interface {
	Resolve(ctx context.Context) ([]listing.Listing, error)
}

// Service ranks keyword search results across all four kinds plus the
// sponsorship slots.
type Service struct {
	agg        *feed.Aggregator
	sponsored  SponsoredProvider
	weights    *Weights
	privileges privilege.Map

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates a search service. Nil weights fall back to defaults.
func NewService(agg *feed.Aggregator, sponsored SponsoredProvider, weights *Weights, privileges privilege.Map) *Service {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Service{
		agg:        agg,
		sponsored:  sponsored,
		weights:    weights,
		privileges: privileges,
		now:        time.Now,
	}
}

// Search returns listings matching the query, sorted by relevance score
// descending with createdAt breaking ties. An empty or whitespace-only query
// returns an empty list, not an error.
//
// Sponsored listings that match the query are boosted above every organic
// result and suppressed from the organic candidate pool so each appears
// exactly once. A sponsored listing matching none of the tokens is excluded
// outright: the zero-score filter runs before the sponsorship boost.
func (s *Service) Search(ctx context.Context, rawQuery string, viewer *geo.Point) ([]listing.Listing, error) {
	query := ParseQuery(rawQuery)
	if query.Empty() {
		return []listing.Listing{}, nil
	}

	sponsored := s.resolveSponsored(ctx)

	organic, err := s.agg.FetchAll(ctx, func(kind listing.Kind) source.Filter {
		terms := make([]source.FieldTerm, 0, len(searchFields[kind])*len(query.Tokens))
		for _, field := range searchFields[kind] {
			for _, token := range query.Tokens {
				terms = append(terms, source.FieldTerm{Field: field, Term: token})
			}
		}
		return source.Filter{
			OrSubstring:          terms,
			OrderByCreatedAtDesc: true,
		}
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	results := make([]listing.Listing, 0, len(organic)+len(sponsored))

	// Sponsored candidates keep their curated identity but still have to
	// match the query.
	sponsoredKeys := make(map[listing.Key]bool, len(sponsored))
	for _, l := range sponsored {
		sponsoredKeys[l.Key()] = true
		text := s.weights.TextScore(&l, query)
		if text == 0 {
			continue
		}
		score := s.weights.SponsoredBoost + text + s.weights.AuxScore(&l, now)
		l.RelevanceScore = &score
		results = append(results, l)
	}

	for _, l := range organic {
		if sponsoredKeys[l.Key()] {
			continue
		}
		text := s.weights.TextScore(&l, query)
		if text == 0 {
			continue
		}
		score := text + s.weights.AuxScore(&l, now)
		l.RelevanceScore = &score
		results = append(results, l)
	}

	feed.AnnotateLocation(results, viewer)
	s.privileges.Stamp(results)
	sortByRelevance(results)

	return results, nil
}

// resolveSponsored fetches the curated listings, failing open to none.
func (s *Service) resolveSponsored(ctx context.Context) []listing.Listing {
	if s.sponsored == nil {
		return nil
	}
	sponsored, err := s.sponsored.Resolve(ctx)
	if err != nil {
		slog.WarnContext(ctx, "sponsored resolution failed, searching organic only", "error", err)
		return nil
	}
	return sponsored
}

// sortByRelevance orders by score descending, createdAt descending, then
// (kind, id) for determinism.
func sortByRelevance(items []listing.Listing) {
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := *items[i].RelevanceScore, *items[j].RelevanceScore
		if si != sj {
			return si > sj
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		if items[i].Kind != items[j].Kind {
			return items[i].Kind < items[j].Kind
		}
		return items[i].ID < items[j].ID
	})
}
