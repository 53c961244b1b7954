// Package health provides HealthChecker adapters for the storage backends
// the cache can run on.
package health

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/offlinefirst/swr-cache/internal/core/ports"
	infraDB "github.com/offlinefirst/swr-cache/internal/infrastructure/db"
)

// checker pairs a dependency name with its probe.
type checker struct {
	name  string
	check func(ctx context.Context) error
}

func (c *checker) Name() string                    { return c.name }
func (c *checker) Check(ctx context.Context) error { return c.check(ctx) }

// NewDBHealthChecker probes the Postgres backend.
func NewDBHealthChecker(db *infraDB.Database) ports.HealthChecker {
	return &checker{name: "database", check: db.DB.PingContext}
}

// NewRedisHealthChecker probes the Redis backend.
func NewRedisHealthChecker(client *redis.Client) ports.HealthChecker {
	return &checker{
		name:  "redis",
		check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
	}
}
