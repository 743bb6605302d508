package tenant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barberbook/backend/pkg/tenant"
)

func TestContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		original := &tenant.Tenant{ID: 7, Subdomain: "elite"}
		ctx := tenant.WithTenant(context.Background(), original)

		got, ok := tenant.FromContext(ctx)
		require.True(t, ok)
		assert.Same(t, original, got)

		id, ok := tenant.IDFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, int64(7), id)
	})

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()
		_, ok := tenant.FromContext(context.Background())
		assert.False(t, ok)

		_, ok = tenant.IDFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("must panics without tenant", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			tenant.MustFromContext(context.Background())
		})
	})

	t.Run("must returns tenant", func(t *testing.T) {
		t.Parallel()
		ctx := tenant.WithTenant(context.Background(), &tenant.Tenant{ID: 1})
		assert.NotPanics(t, func() {
			got := tenant.MustFromContext(ctx)
			assert.Equal(t, int64(1), got.ID)
		})
	})
}
