// Package tenant resolves which barbershop a request belongs to and carries
// that identity through the request as an immutable context value.
//
// Resolution tries, in order: a diagnostic query override, the Host header
// subdomain, the first URL path segment, and finally the designated default
// shop for development and hosting-placeholder hosts. The first candidate
// with a matching row in the tenant table wins. Requests that resolve to no
// shop are rejected with 404, and requests for a deactivated shop with 403,
// before any handler runs.
//
// Downstream components receive the resolved tenant explicitly via
// FromContext / MustFromContext; there is no ambient global state.
package tenant
