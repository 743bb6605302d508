package tenant_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barberbook/backend/pkg/tenant"
)

// shopDirectory is a Provider over a fixed set of shops.
func shopDirectory(shops map[string]*tenant.Tenant) tenant.Provider {
	return tenant.ProviderFunc(func(_ context.Context, subdomain string) (*tenant.Tenant, error) {
		if t, ok := shops[subdomain]; ok {
			return t, nil
		}
		return nil, tenant.ErrTenantNotFound
	})
}

func testShops() map[string]*tenant.Tenant {
	return map[string]*tenant.Tenant{
		"elite":   {ID: 2, Subdomain: "elite", Name: "Elite Cuts", Active: true},
		"classic": {ID: 3, Subdomain: "classic", Name: "Classic Barber", Active: true},
		"default": {ID: 1, Subdomain: "default", Name: "Barber Book", Active: true},
	}
}

func TestSubdomainResolver(t *testing.T) {
	t.Parallel()

	resolver := tenant.NewSubdomainResolver()

	tests := []struct {
		name string
		host string
		want string
	}{
		{"customer subdomain", "elite.example.com", "elite"},
		{"subdomain with port", "elite.example.com:8080", "elite"},
		{"two labels only", "example.com", ""},
		{"www is reserved", "www.example.com", ""},
		{"api is reserved", "api.example.com", ""},
		{"admin is reserved", "admin.example.com", ""},
		{"localhost", "localhost:3000", ""},
		{"loopback", "127.0.0.1:3000", ""},
		{"hosting placeholder", "myapp.azurewebsites.net", ""},
		{"render placeholder", "myapp.onrender.com", ""},
		{"case folded", "ELITE.Example.COM", "elite"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/", nil)
			r.Host = tt.host
			assert.Equal(t, tt.want, resolver.Resolve(r))
		})
	}
}

func TestPathResolver(t *testing.T) {
	t.Parallel()

	resolver := tenant.NewPathResolver()

	tests := []struct {
		name string
		path string
		want string
	}{
		{"first segment", "/elite/booking", "elite"},
		{"single segment", "/elite", "elite"},
		{"api is reserved", "/api/services", ""},
		{"admin is reserved", "/admin/appointments", ""},
		{"root", "/", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", tt.path, nil)
			assert.Equal(t, tt.want, resolver.Resolve(r))
		})
	}
}

func TestChainResolve(t *testing.T) {
	t.Parallel()

	provider := shopDirectory(testShops())

	t.Run("subdomain wins", func(t *testing.T) {
		t.Parallel()
		chain := tenant.NewChain(provider, false)
		r := httptest.NewRequest("GET", "/booking", nil)
		r.Host = "elite.example.com"

		resolved, err := chain.Resolve(context.Background(), r)
		require.NoError(t, err)
		assert.Equal(t, int64(2), resolved.ID)
	})

	t.Run("path segment resolves", func(t *testing.T) {
		t.Parallel()
		chain := tenant.NewChain(provider, false)
		r := httptest.NewRequest("GET", "/classic/booking", nil)
		r.Host = "example.com"

		resolved, err := chain.Resolve(context.Background(), r)
		require.NoError(t, err)
		assert.Equal(t, int64(3), resolved.ID)
	})

	t.Run("subdomain outranks path", func(t *testing.T) {
		t.Parallel()
		chain := tenant.NewChain(provider, false)
		r := httptest.NewRequest("GET", "/classic/booking", nil)
		r.Host = "elite.example.com"

		resolved, err := chain.Resolve(context.Background(), r)
		require.NoError(t, err)
		assert.Equal(t, int64(2), resolved.ID, "first matching rule wins, no conflict detection")
	})

	t.Run("unknown subdomain falls through to path", func(t *testing.T) {
		t.Parallel()
		chain := tenant.NewChain(provider, false)
		r := httptest.NewRequest("GET", "/classic/booking", nil)
		r.Host = "ghost.example.com"

		resolved, err := chain.Resolve(context.Background(), r)
		require.NoError(t, err)
		assert.Equal(t, int64(3), resolved.ID)
	})

	t.Run("placeholder host gets default shop", func(t *testing.T) {
		t.Parallel()
		chain := tenant.NewChain(provider, false)
		r := httptest.NewRequest("GET", "/", nil)
		r.Host = "localhost:3000"

		resolved, err := chain.Resolve(context.Background(), r)
		require.NoError(t, err)
		assert.Equal(t, int64(1), resolved.ID)
	})

	t.Run("unknown everything", func(t *testing.T) {
		t.Parallel()
		chain := tenant.NewChain(provider, false)
		r := httptest.NewRequest("GET", "/unknown-shop", nil)
		r.Host = "example.com"

		_, err := chain.Resolve(context.Background(), r)
		require.ErrorIs(t, err, tenant.ErrTenantNotFound)
	})

	t.Run("query override enabled", func(t *testing.T) {
		t.Parallel()
		chain := tenant.NewChain(provider, true)
		r := httptest.NewRequest("GET", "/?shop=classic", nil)
		r.Host = "elite.example.com"

		resolved, err := chain.Resolve(context.Background(), r)
		require.NoError(t, err)
		assert.Equal(t, int64(3), resolved.ID, "query override outranks subdomain")
	})

	t.Run("query override disabled", func(t *testing.T) {
		t.Parallel()
		chain := tenant.NewChain(provider, false)
		r := httptest.NewRequest("GET", "/?shop=classic", nil)
		r.Host = "elite.example.com"

		resolved, err := chain.Resolve(context.Background(), r)
		require.NoError(t, err)
		assert.Equal(t, int64(2), resolved.ID)
	})
}

func TestIsPlaceholderHost(t *testing.T) {
	t.Parallel()

	assert.True(t, tenant.IsPlaceholderHost("localhost"))
	assert.True(t, tenant.IsPlaceholderHost("localhost:8080"))
	assert.True(t, tenant.IsPlaceholderHost("127.0.0.1:8080"))
	assert.True(t, tenant.IsPlaceholderHost("myapp.azurewebsites.net"))
	assert.True(t, tenant.IsPlaceholderHost("myapp.fly.dev"))
	assert.False(t, tenant.IsPlaceholderHost("elite.example.com"))
	assert.False(t, tenant.IsPlaceholderHost("thebarberbook.com"))
}
