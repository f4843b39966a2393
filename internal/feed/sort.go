package feed

import (
	"sort"
	"time"

	"github.com/studxhq/studx/internal/listing"
)

// TieWindow is the createdAt proximity inside which two listings are treated
// as contemporaneous and distance is allowed to break the tie.
const TieWindow = 24 * time.Hour

// SortListings orders a merged feed in place: createdAt descending, with a
// distance-ascending tie-break when a viewer location was supplied and two
// listings were created within TieWindow of each other. Within the tie
// window a known distance always outranks an unknown one.
func SortListings(items []listing.Listing, byDistance bool) {
	sort.SliceStable(items, func(i, j int) bool {
		return lessListing(&items[i], &items[j], byDistance)
	})
}

func lessListing(a, b *listing.Listing, byDistance bool) bool {
	if byDistance && withinTieWindow(a.CreatedAt, b.CreatedAt) {
		switch {
		case a.Distance != nil && b.Distance != nil:
			if *a.Distance != *b.Distance {
				return *a.Distance < *b.Distance
			}
		case a.Distance != nil:
			return true
		case b.Distance != nil:
			return false
		}
	}

	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	// Deterministic tie-break for identical timestamps, matching the stable
	// pagination contract.
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID < b.ID
}

func withinTieWindow(a, b time.Time) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d < TieWindow
}
