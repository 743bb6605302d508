package tenant

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/barberbook/backend/pkg/logger"
)

// Response bodies are part of the public API contract with the booking
// frontend and must not change.
const (
	msgNotFound = "Barber shop not found"
	msgInactive = "Barber shop is not active"
	msgInternal = "Internal server error"

	defaultTTL = 5 * time.Minute
)

// DefaultSkipPaths are the paths that proceed with no tenant attached:
// health checks, API documentation, and tenant-management endpoints.
var DefaultSkipPaths = []string{
	"/health",
	"/api/health",
	"/swagger",
	"/api/tenants",
}

// Middleware resolves the tenant for every incoming request and attaches it
// to the request context. Requests that cannot be mapped to an active shop
// are rejected before reaching any handler.
func Middleware(provider Provider, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		cache:     NewInMemoryCache(),
		cacheTTL:  defaultTTL,
		skipPaths: DefaultSkipPaths,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var chain *Chain
	cached := &cachingProvider{provider: provider, cache: cfg.cache, ttl: cfg.cacheTTL}
	if len(cfg.resolvers) > 0 {
		chain = NewCustomChain(cached, cfg.resolvers...)
	} else {
		chain = NewChain(cached, cfg.allowQueryOverride)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Resolution and guard logic must never take the process
			// down; anything unexpected becomes a generic 500.
			defer func() {
				if rec := recover(); rec != nil {
					cfg.logger.ErrorContext(r.Context(), "panic during tenant resolution",
						slog.Any("panic", rec),
						slog.String("path", r.URL.Path),
					)
					http.Error(w, msgInternal, http.StatusInternalServerError)
				}
			}()

			if skipResolution(r.URL.Path, cfg.skipPaths) {
				next.ServeHTTP(w, r)
				return
			}

			t, err := chain.Resolve(r.Context(), r)
			if err != nil {
				if errors.Is(err, ErrTenantNotFound) {
					cfg.logger.WarnContext(r.Context(), "tenant not resolved",
						slog.String("host", r.Host),
						slog.String("path", r.URL.Path),
					)
					http.Error(w, msgNotFound, http.StatusNotFound)
					return
				}
				cfg.logger.ErrorContext(r.Context(), "tenant lookup failed",
					slog.Any("error", err),
					slog.String("host", r.Host),
				)
				http.Error(w, msgInternal, http.StatusInternalServerError)
				return
			}

			if !t.Active {
				cfg.logger.WarnContext(r.Context(), "inactive tenant accessed",
					logger.TenantID(t.ID),
					logger.Subdomain(t.Subdomain),
				)
				http.Error(w, msgInactive, http.StatusForbidden)
				return
			}

			ctx := WithTenant(r.Context(), t)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func skipResolution(path string, skipPaths []string) bool {
	for _, skip := range skipPaths {
		if path == skip || strings.HasPrefix(path, skip) {
			return true
		}
	}
	return false
}

// RequireTenant ensures a tenant is present in the context, for routes
// mounted outside the standard middleware chain.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			http.Error(w, msgNotFound, http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
