package feed

import (
	"errors"
	"fmt"

	"github.com/studxhq/studx/internal/listing"
)

// ErrInvalidRequest indicates caller-supplied paging parameters that are
// rejected outright rather than clamped.
var ErrInvalidRequest = errors.New("invalid request")

// Paginate slices an ordered feed into the requested 1-indexed page.
// hasMore is true only when the page is full and more items remain beyond it.
func Paginate(items []listing.Listing, page, size int) ([]listing.Listing, bool, error) {
	if page < 1 {
		return nil, false, fmt.Errorf("%w: page must be >= 1 (got %d)", ErrInvalidRequest, page)
	}
	if size < 1 {
		return nil, false, fmt.Errorf("%w: page size must be >= 1 (got %d)", ErrInvalidRequest, size)
	}

	offset := (page - 1) * size
	if offset >= len(items) {
		return []listing.Listing{}, false, nil
	}

	end := offset + size
	if end > len(items) {
		end = len(items)
	}

	slice := items[offset:end]
	hasMore := len(slice) == size && len(items) > end
	return slice, hasMore, nil
}
