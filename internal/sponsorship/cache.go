package sponsorship

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studxhq/studx/internal/listing"
)

// cacheKey is versioned so a schema change invalidates stale payloads.
const cacheKey = "sponsorship:featured:v1"

// DefaultCacheTTL matches the curation tool's refresh cadence.
const DefaultCacheTTL = 5 * time.Minute

// Provider resolves sponsored listings; both Resolver and CachedResolver
// satisfy it.
type Provider interface {
	Resolve(ctx context.Context) ([]listing.Listing, error)
}

// CachedResolver wraps a Provider with a Redis cache. Every Redis failure
// fails open to the inner provider: the cache can only ever make resolution
// faster, never break it.
type CachedResolver struct {
	inner  Provider
	client *redis.Client
	ttl    time.Duration
}

// NewCachedResolver creates a caching wrapper. A zero ttl means
// DefaultCacheTTL.
func NewCachedResolver(inner Provider, client *redis.Client, ttl time.Duration) *CachedResolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedResolver{inner: inner, client: client, ttl: ttl}
}

// Resolve returns the cached sponsored listings when fresh, otherwise
// resolves through the inner provider and repopulates the cache.
func (c *CachedResolver) Resolve(ctx context.Context) ([]listing.Listing, error) {
	if cached, ok := c.get(ctx); ok {
		return cached, nil
	}

	items, err := c.inner.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	c.put(ctx, items)
	return items, nil
}

func (c *CachedResolver) get(ctx context.Context) ([]listing.Listing, bool) {
	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.WarnContext(ctx, "sponsorship cache read failed", "error", err)
		}
		return nil, false
	}

	var items []listing.Listing
	if err := json.Unmarshal(data, &items); err != nil {
		slog.WarnContext(ctx, "sponsorship cache payload invalid, ignoring", "error", err)
		return nil, false
	}
	return items, true
}

func (c *CachedResolver) put(ctx context.Context, items []listing.Listing) {
	data, err := json.Marshal(items)
	if err != nil {
		slog.WarnContext(ctx, "sponsorship cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "sponsorship cache write failed", "error", err)
	}
}
