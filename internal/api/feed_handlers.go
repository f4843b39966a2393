// Package api provides HTTP handlers for the StudX listings API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/studxhq/studx/internal/feed"
	"github.com/studxhq/studx/internal/listing"
	"github.com/studxhq/studx/internal/middleware"
)

// FeedHandlers holds dependencies for the unified feed HTTP handlers.
type FeedHandlers struct {
	agg             *feed.Aggregator
	defaultPageSize int
	maxPageSize     int
}

// NewFeedHandlers creates a new FeedHandlers instance.
func NewFeedHandlers(agg *feed.Aggregator, defaultPageSize, maxPageSize int) *FeedHandlers {
	return &FeedHandlers{
		agg:             agg,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// FeedResponse represents the paginated feed payload.
type FeedResponse struct {
	Items    []listing.Listing `json:"items"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	HasMore  bool              `json:"has_more"`
	Count    int               `json:"count"`
}

// Feed handles GET /feed - the unified recency-ordered listing feed.
//
// Query parameters:
//   - page: 1-based page number (default 1)
//   - page_size: items per page (default and ceiling from config)
//   - lat, lng: optional viewer location for distance annotation and
//     near-tie distance ordering
func (h *FeedHandlers) Feed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	query := r.URL.Query()

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

	viewer, err := parseViewer(query)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	items, hasMore, err := h.agg.BuildFeed(r.Context(), page, pageSize, viewer)
	if err != nil {
		if errors.Is(err, feed.ErrInvalidRequest) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "failed to build feed", "error", err, "page", page)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to build feed")
		return
	}

	response := FeedResponse{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		HasMore:  hasMore,
		Count:    len(items),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode feed response", "error", err)
	}
}
