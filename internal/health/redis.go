// Package health holds dependency probes for the health and readiness
// endpoints. Each checker wraps one external dependency behind the same
// HealthCheck(ctx) error shape.
package health

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisChecker probes the sponsorship cache. Redis is optional, so its
// failures are reported but never flip readiness.
type RedisChecker struct {
	client *redis.Client
}

func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// HealthCheck sends a PING over the configured client.
func (r *RedisChecker) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
