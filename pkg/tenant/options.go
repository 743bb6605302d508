package tenant

import (
	"log/slog"
	"time"
)

// config holds middleware configuration.
type config struct {
	cache              Cache
	cacheTTL           time.Duration
	skipPaths          []string
	allowQueryOverride bool
	resolvers          []Resolver
	logger             *slog.Logger
}

// Option configures the middleware.
type Option func(*config)

// WithCache sets a custom cache implementation, e.g. the Redis-backed one.
func WithCache(cache Cache) Option {
	return func(c *config) {
		c.cache = cache
	}
}

// WithCacheTTL sets how long the subdomain-to-tenant mapping stays cached.
// The TTL bounds identity staleness only; the active flag is re-verified
// against the provider on every cache hit.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.cacheTTL = ttl
	}
}

// WithSkipPaths sets request paths that bypass tenant resolution entirely.
// Each entry matches exactly or as a path prefix.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		c.skipPaths = paths
	}
}

// WithQueryOverride enables the diagnostic ?shop= override. Meant for test
// deployments; leaving it on in production lets any caller pick a tenant.
func WithQueryOverride(allow bool) Option {
	return func(c *config) {
		c.allowQueryOverride = allow
	}
}

// WithResolvers replaces the standard resolution chain.
func WithResolvers(resolvers ...Resolver) Option {
	return func(c *config) {
		c.resolvers = resolvers
	}
}

// WithLogger sets the logger used for resolution outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
