package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barberbook/backend/modules/auth"
	"github.com/barberbook/backend/pkg/tenant"
)

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	admin := &auth.Admin{ID: 10, TenantID: 1, Username: "tony", Name: "Tony", IsActive: true}
	svc := newTestService(t, newFakeStorage(admin), &fakeMailer{}, newMockClock())

	token, err := svc.IssueSessionToken(admin, testTenant())
	require.NoError(t, err)

	protected := auth.RequireAdmin(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := auth.ClaimsFromContext(r.Context())
		require.NoError(t, err)
		assert.Equal(t, int64(1), claims.TenantID)
		w.WriteHeader(http.StatusOK)
	}))

	newRequest := func(tn *tenant.Tenant, authorization string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/auth/status", nil)
		if tn != nil {
			r = r.WithContext(tenant.WithTenant(r.Context(), tn))
		}
		if authorization != "" {
			r.Header.Set("Authorization", authorization)
		}
		return r
	}

	t.Run("valid token for matching shop", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, newRequest(testTenant(), "Bearer "+token))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, newRequest(testTenant(), ""))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Authentication required")
	})

	t.Run("malformed header", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, newRequest(testTenant(), "Basic dG9ueTpwdw=="))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, newRequest(testTenant(), "Bearer not-a-jwt"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid or expired token")
	})

	t.Run("token minted for another shop", func(t *testing.T) {
		t.Parallel()
		other := &tenant.Tenant{ID: 2, Subdomain: "classic", Name: "Classic Barber", Active: true}
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, newRequest(other, "Bearer "+token))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no tenant resolved", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, newRequest(nil, "Bearer "+token))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGuards(t *testing.T) {
	t.Parallel()

	claims := &auth.SessionClaims{Role: auth.RoleAdmin, TenantID: 1}

	t.Run("authenticated", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, auth.Authenticated()(context.Background(), claims))
		require.ErrorIs(t, auth.Authenticated()(context.Background(), nil), auth.ErrUnauthenticated)
	})

	t.Run("tenant matches", func(t *testing.T) {
		t.Parallel()
		ctx := tenant.WithTenant(context.Background(), testTenant())
		require.NoError(t, auth.TenantMatches()(ctx, claims))

		foreign := &auth.SessionClaims{Role: auth.RoleAdmin, TenantID: 99}
		require.ErrorIs(t, auth.TenantMatches()(ctx, foreign), auth.ErrTenantMismatch)
		require.ErrorIs(t, auth.TenantMatches()(context.Background(), claims), tenant.ErrNoTenantInContext)
	})

	t.Run("has role", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, auth.HasRole(auth.RoleAdmin)(context.Background(), claims))
		require.ErrorIs(t, auth.HasRole("owner")(context.Background(), claims), auth.ErrRoleForbidden)
	})
}

func TestClaimsFromContext(t *testing.T) {
	t.Parallel()

	claims := &auth.SessionClaims{Role: auth.RoleAdmin, TenantID: 1}
	ctx := auth.WithClaims(context.Background(), claims)

	got, err := auth.ClaimsFromContext(ctx)
	require.NoError(t, err)
	assert.Same(t, claims, got)

	_, err = auth.ClaimsFromContext(context.Background())
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
}
