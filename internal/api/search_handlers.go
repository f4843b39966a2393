// Package api provides HTTP handlers for the StudX listings API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/studxhq/studx/internal/listing"
	"github.com/studxhq/studx/internal/middleware"
	"github.com/studxhq/studx/internal/search"
)

// SearchHandlers holds dependencies for search HTTP handlers.
type SearchHandlers struct {
	svc *search.Service
}

// NewSearchHandlers creates a new SearchHandlers instance.
func NewSearchHandlers(svc *search.Service) *SearchHandlers {
	return &SearchHandlers{svc: svc}
}

// SearchResponse represents the relevance-ordered search payload.
type SearchResponse struct {
	Results []listing.Listing `json:"results"`
	Count   int               `json:"count"`
}

// Search handles GET /search - relevance-ranked search across all listing
// collections. Sponsored listings that match the query rank first.
//
// Query parameters:
//   - q: the search query (an empty query returns an empty result set)
//   - lat, lng: optional viewer location for distance annotation
func (h *SearchHandlers) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	query := r.URL.Query()

	viewer, err := parseViewer(query)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	results, err := h.svc.Search(r.Context(), query.Get("q"), viewer)
	if err != nil {
		slog.ErrorContext(r.Context(), "search failed", "error", err, "query", query.Get("q"))
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Search failed")
		return
	}

	response := SearchResponse{
		Results: results,
		Count:   len(results),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode search response", "error", err)
	}
}
