package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when no shop matches the resolved identifier.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrNoTenantInContext is returned when a component that requires tenant
	// scoping is asked to operate on a context without a resolved tenant.
	ErrNoTenantInContext = errors.New("no tenant in context")
)
