// Package api provides HTTP handlers for the StudX listings API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/studxhq/studx/internal/feed"
	"github.com/studxhq/studx/internal/listing"
	"github.com/studxhq/studx/internal/middleware"
)

// ListingHandlers holds dependencies for listing discovery handlers.
type ListingHandlers struct {
	agg             *feed.Aggregator
	defaultPageSize int
	maxPageSize     int
}

// NewListingHandlers creates a new ListingHandlers instance.
func NewListingHandlers(agg *feed.Aggregator, defaultPageSize, maxPageSize int) *ListingHandlers {
	return &ListingHandlers{
		agg:             agg,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// SimilarResponse represents the paginated similar-listings payload.
type SimilarResponse struct {
	Items    []listing.Listing `json:"items"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	HasMore  bool              `json:"has_more"`
	Count    int               `json:"count"`
}

// SellerResponse represents the cross-collection seller portfolio payload.
type SellerResponse struct {
	Items []listing.Listing `json:"items"`
	Count int               `json:"count"`
}

// Similar handles GET /listings/similar - listings related to one the viewer
// is looking at, matched by category (or college for rooms) within the same
// collection, with the viewed listing excluded.
//
// Query parameters:
//   - kind: listing kind (product, note, room, rental)
//   - category: category to match (non-room kinds)
//   - college: college to match (room kind)
//   - exclude_id: id of the listing being viewed
//   - page, page_size: pagination
func (h *ListingHandlers) Similar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	query := r.URL.Query()

	kind := listing.Kind(strings.TrimSpace(query.Get("kind")))
	if !kind.Valid() {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeUnknownKind)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeUnknownKind, fmt.Sprintf("unknown listing kind %q", string(kind)))
		return
	}

	page, err := parsePositiveInt(query, "page", 1)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	pageSize, err := parsePositiveInt(query, "page_size", h.defaultPageSize)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}
	if pageSize > h.maxPageSize {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, fmt.Sprintf("page_size must not exceed %d", h.maxPageSize))
		return
	}

	items, hasMore, err := h.agg.SimilarListings(
		r.Context(),
		kind,
		strings.TrimSpace(query.Get("category")),
		strings.TrimSpace(query.Get("college")),
		strings.TrimSpace(query.Get("exclude_id")),
		page,
		pageSize,
	)
	if err != nil {
		if errors.Is(err, feed.ErrInvalidRequest) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "failed to fetch similar listings", "error", err, "kind", string(kind))
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to fetch similar listings")
		return
	}

	response := SimilarResponse{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		HasMore:  hasMore,
		Count:    len(items),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode similar response", "error", err)
	}
}

// Seller handles GET /listings/seller - everything one seller has listed
// across all collections, newest first.
//
// Query parameters:
//   - seller_id: the seller to look up (required)
//   - exclude_id, exclude_kind: optional listing to omit (the one being viewed)
func (h *ListingHandlers) Seller(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	query := r.URL.Query()

	sellerID := strings.TrimSpace(query.Get("seller_id"))
	if sellerID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "seller_id is required")
		return
	}

	excludeKind := listing.Kind(strings.TrimSpace(query.Get("exclude_kind")))
	if excludeKind != "" && !excludeKind.Valid() {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeUnknownKind)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeUnknownKind, fmt.Sprintf("unknown listing kind %q", string(excludeKind)))
		return
	}

	items, err := h.agg.SellerListings(r.Context(), sellerID, strings.TrimSpace(query.Get("exclude_id")), excludeKind)
	if err != nil {
		if errors.Is(err, feed.ErrInvalidRequest) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "failed to fetch seller listings", "error", err, "seller_id", sellerID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to fetch seller listings")
		return
	}

	response := SellerResponse{
		Items: items,
		Count: len(items),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode seller response", "error", err)
	}
}
