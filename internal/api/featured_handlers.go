// Package api provides HTTP handlers for the StudX listings API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/studxhq/studx/internal/listing"
	"github.com/studxhq/studx/internal/middleware"
	"github.com/studxhq/studx/internal/sponsorship"
)

// FeaturedHandlers holds dependencies for the featured listings handler.
type FeaturedHandlers struct {
	featured *sponsorship.FeaturedService
}

// NewFeaturedHandlers creates a new FeaturedHandlers instance.
func NewFeaturedHandlers(featured *sponsorship.FeaturedService) *FeaturedHandlers {
	return &FeaturedHandlers{featured: featured}
}

// FeaturedResponse represents the curated featured carousel payload.
type FeaturedResponse struct {
	Items []listing.Listing `json:"items"`
	Count int               `json:"count"`
}

// Featured handles GET /featured - the curated sponsored carousel in
// curator-defined slot order. Resolution failures degrade to an empty list
// rather than an error.
func (h *FeaturedHandlers) Featured(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	items := h.featured.Featured(r.Context())

	response := FeaturedResponse{
		Items: items,
		Count: len(items),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode featured response", "error", err)
	}
}
