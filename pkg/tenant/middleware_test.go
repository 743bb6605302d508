package tenant_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barberbook/backend/pkg/tenant"
)

func okHandler(t *testing.T, wantTenantID int64) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved, ok := tenant.FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, wantTenantID, resolved.ID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	shops := testShops()
	shops["closed"] = &tenant.Tenant{ID: 9, Subdomain: "closed", Name: "Closed Shop", Active: false}
	provider := shopDirectory(shops)

	t.Run("resolved tenant reaches handler", func(t *testing.T) {
		t.Parallel()
		mw := tenant.Middleware(provider)
		r := httptest.NewRequest("GET", "/booking", nil)
		r.Host = "elite.example.com"
		w := httptest.NewRecorder()

		mw(okHandler(t, 2)).ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown shop", func(t *testing.T) {
		t.Parallel()
		mw := tenant.Middleware(provider)
		r := httptest.NewRequest("GET", "/unknown-shop", nil)
		r.Host = "example.com"
		w := httptest.NewRecorder()

		mw(okHandler(t, 0)).ServeHTTP(w, r)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Barber shop not found", strings.TrimSpace(w.Body.String()))
	})

	t.Run("inactive shop", func(t *testing.T) {
		t.Parallel()
		mw := tenant.Middleware(provider)
		r := httptest.NewRequest("GET", "/", nil)
		r.Host = "closed.example.com"
		w := httptest.NewRecorder()

		mw(okHandler(t, 0)).ServeHTTP(w, r)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Barber shop is not active", strings.TrimSpace(w.Body.String()))
	})

	t.Run("bypass paths skip resolution", func(t *testing.T) {
		t.Parallel()
		mw := tenant.Middleware(provider)

		for _, path := range []string{"/health", "/api/health", "/swagger/index.html", "/api/tenants"} {
			r := httptest.NewRequest("GET", path, nil)
			r.Host = "ghost.example.com"
			w := httptest.NewRecorder()

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, ok := tenant.FromContext(r.Context())
				assert.False(t, ok, "bypassed request must carry no tenant")
				w.WriteHeader(http.StatusOK)
			})
			mw(handler).ServeHTTP(w, r)
			assert.Equal(t, http.StatusOK, w.Code, "path %s should bypass", path)
		}
	})

	t.Run("provider failure is internal error", func(t *testing.T) {
		t.Parallel()
		failing := tenant.ProviderFunc(func(context.Context, string) (*tenant.Tenant, error) {
			return nil, assert.AnError
		})
		mw := tenant.Middleware(failing)
		r := httptest.NewRequest("GET", "/", nil)
		r.Host = "elite.example.com"
		w := httptest.NewRecorder()

		mw(okHandler(t, 0)).ServeHTTP(w, r)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("panic in provider becomes 500", func(t *testing.T) {
		t.Parallel()
		panicking := tenant.ProviderFunc(func(context.Context, string) (*tenant.Tenant, error) {
			panic("boom")
		})
		mw := tenant.Middleware(panicking)
		r := httptest.NewRequest("GET", "/", nil)
		r.Host = "elite.example.com"
		w := httptest.NewRecorder()

		require.NotPanics(t, func() {
			mw(okHandler(t, 0)).ServeHTTP(w, r)
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("query override honored only when enabled", func(t *testing.T) {
		t.Parallel()
		mw := tenant.Middleware(provider, tenant.WithQueryOverride(true))
		r := httptest.NewRequest("GET", "/?shop=classic", nil)
		r.Host = "elite.example.com"
		w := httptest.NewRecorder()

		mw(okHandler(t, 3)).ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("custom skip paths", func(t *testing.T) {
		t.Parallel()
		mw := tenant.Middleware(provider, tenant.WithSkipPaths("/metrics"))
		r := httptest.NewRequest("GET", "/metrics", nil)
		r.Host = "ghost.example.com"
		w := httptest.NewRecorder()

		handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		mw(handler).ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

// countingProvider records full lookups and flag checks separately.
type countingProvider struct {
	mu         sync.Mutex
	shop       tenant.Tenant
	lookups    int
	flagChecks int
}

func (p *countingProvider) GetBySubdomain(_ context.Context, subdomain string) (*tenant.Tenant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lookups++
	if subdomain != p.shop.Subdomain {
		return nil, tenant.ErrTenantNotFound
	}
	shop := p.shop
	return &shop, nil
}

func (p *countingProvider) IsActive(_ context.Context, id int64) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flagChecks++
	if id != p.shop.ID {
		return false, tenant.ErrTenantNotFound
	}
	return p.shop.Active, nil
}

func (p *countingProvider) setActive(active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shop.Active = active
}

func TestMiddlewareCaching(t *testing.T) {
	t.Parallel()

	provider := &countingProvider{
		shop: tenant.Tenant{ID: 2, Subdomain: "elite", Active: true},
	}

	mw := tenant.Middleware(provider)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		r := httptest.NewRequest("GET", "/", nil)
		r.Host = "elite.example.com"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 1, provider.lookups, "repeat lookups should hit the cache")
	assert.Equal(t, 2, provider.flagChecks, "every cache hit re-verifies the active flag")
}

func TestMiddlewareDeactivationBlocksNextRequest(t *testing.T) {
	t.Parallel()

	serve := func(handler http.Handler) *httptest.ResponseRecorder {
		r := httptest.NewRequest("GET", "/", nil)
		r.Host = "elite.example.com"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w
	}

	t.Run("provider with flag checks", func(t *testing.T) {
		t.Parallel()
		provider := &countingProvider{
			shop: tenant.Tenant{ID: 2, Subdomain: "elite", Active: true},
		}
		handler := tenant.Middleware(provider)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		require.Equal(t, http.StatusOK, serve(handler).Code)

		provider.setActive(false)
		w := serve(handler)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Barber shop is not active", strings.TrimSpace(w.Body.String()))

		provider.setActive(true)
		assert.Equal(t, http.StatusOK, serve(handler).Code)
	})

	t.Run("plain provider", func(t *testing.T) {
		t.Parallel()
		var active atomic.Bool
		active.Store(true)
		provider := tenant.ProviderFunc(func(_ context.Context, subdomain string) (*tenant.Tenant, error) {
			if subdomain != "elite" {
				return nil, tenant.ErrTenantNotFound
			}
			return &tenant.Tenant{ID: 2, Subdomain: "elite", Active: active.Load()}, nil
		})
		handler := tenant.Middleware(provider)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		require.Equal(t, http.StatusOK, serve(handler).Code)

		active.Store(false)
		assert.Equal(t, http.StatusForbidden, serve(handler).Code)
	})
}

func TestRequireTenant(t *testing.T) {
	t.Parallel()

	handler := tenant.RequireTenant(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("without tenant", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest("GET", "/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("with tenant", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest("GET", "/", nil)
		ctx := tenant.WithTenant(r.Context(), &tenant.Tenant{ID: 1, Active: true})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r.WithContext(ctx))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
