package tenant

import (
	"context"
	"time"
)

// DefaultSubdomain is the subdomain of the designated fallback shop used
// when the request arrives on a development or hosting-placeholder host.
const DefaultSubdomain = "default"

// Tenant represents one barbershop instance with the minimal information
// needed for request-scoped operations.
type Tenant struct {
	ID        int64     `json:"id" db:"id"`
	Subdomain string    `json:"subdomain" db:"subdomain"`
	Name      string    `json:"name" db:"name"`
	Active    bool      `json:"active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Provider loads tenant information from a data source.
// Returns ErrTenantNotFound if no tenant matches the subdomain.
type Provider interface {
	GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
}

// ActivityChecker is an optional Provider capability: a cheap lookup of the
// current active flag by tenant id. The caching layer uses it to honor
// deactivation on the very next request instead of waiting out the cache
// TTL. Returns ErrTenantNotFound if the tenant row is gone.
type ActivityChecker interface {
	IsActive(ctx context.Context, id int64) (bool, error)
}

// ProviderFunc is an adapter to allow ordinary functions as Providers.
type ProviderFunc func(ctx context.Context, subdomain string) (*Tenant, error)

// GetBySubdomain calls the function.
func (f ProviderFunc) GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	return f(ctx, subdomain)
}
