package tenant

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/barberbook/backend/pkg/sanitizer"
)

// Resolver extracts a candidate shop subdomain from an HTTP request.
// Returns empty string if this signal source produces no candidate.
type Resolver interface {
	Resolve(r *http.Request) string
}

// ResolverFunc is an adapter to allow ordinary functions as Resolvers.
type ResolverFunc func(r *http.Request) string

// Resolve calls the function.
func (f ResolverFunc) Resolve(r *http.Request) string {
	return f(r)
}

// reservedLabels are host labels that never identify a shop.
var reservedLabels = map[string]bool{
	"www":   true,
	"api":   true,
	"admin": true,
	"app":   true,
	"mail":  true,
}

// reservedSegments are leading path segments owned by the application itself.
var reservedSegments = map[string]bool{
	"api":   true,
	"admin": true,
}

// placeholderSuffixes covers domains generated by hosting platforms, where the
// leading host label is deployment noise rather than a shop subdomain.
var placeholderSuffixes = []string{
	".azurewebsites.net",
	".up.railway.app",
	".onrender.com",
	".fly.dev",
	".herokuapp.com",
	".localhost",
}

// IsPlaceholderHost reports whether the host belongs to a known
// non-production or hosting-platform deployment rather than a real
// customer-facing domain.
func IsPlaceholderHost(host string) bool {
	host = strings.ToLower(stripPort(host))
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true
	}
	for _, suffix := range placeholderSuffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}

// stripPort removes a trailing :port from a Host header value.
func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// QueryResolver reads the shop identifier from a diagnostic query parameter.
// Intended for testing only; see NewChain for where it sits in precedence.
type QueryResolver struct {
	// Param is the query parameter name, e.g. "shop".
	Param string
}

// NewQueryResolver creates a query-parameter resolver.
func NewQueryResolver(param string) *QueryResolver {
	if param == "" {
		param = "shop"
	}
	return &QueryResolver{Param: param}
}

// Resolve extracts the shop identifier from the configured query parameter.
func (q *QueryResolver) Resolve(r *http.Request) string {
	return r.URL.Query().Get(q.Param)
}

// SubdomainResolver extracts the shop subdomain from the Host header
// (e.g. "elite" from "elite.thebarberbook.com").
type SubdomainResolver struct{}

// NewSubdomainResolver creates a subdomain resolver.
func NewSubdomainResolver() *SubdomainResolver {
	return &SubdomainResolver{}
}

// Resolve returns the leading host label when the host has at least three
// dot-separated labels, the label is not reserved, and the host is not a
// loopback or hosting-placeholder domain.
func (s *SubdomainResolver) Resolve(r *http.Request) string {
	host := strings.ToLower(stripPort(r.Host))
	if IsPlaceholderHost(host) {
		return ""
	}

	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}
	if reservedLabels[parts[0]] {
		return ""
	}
	return parts[0]
}

// PathResolver extracts the shop identifier from the first URL path segment
// (e.g. "elite" from "/elite/booker").
type PathResolver struct{}

// NewPathResolver creates a path-segment resolver.
func NewPathResolver() *PathResolver {
	return &PathResolver{}
}

// Resolve returns the first path segment unless it is a reserved
// application prefix.
func (p *PathResolver) Resolve(r *http.Request) string {
	path := strings.Trim(r.URL.Path, "/")
	if path == "" {
		return ""
	}

	segment := path
	if idx := strings.Index(path, "/"); idx != -1 {
		segment = path[:idx]
	}
	if reservedSegments[strings.ToLower(segment)] {
		return ""
	}
	return segment
}

// PlaceholderFallbackResolver resolves requests on development and
// hosting-placeholder hosts to the designated default shop.
type PlaceholderFallbackResolver struct{}

// NewPlaceholderFallbackResolver creates the fallback resolver.
func NewPlaceholderFallbackResolver() *PlaceholderFallbackResolver {
	return &PlaceholderFallbackResolver{}
}

// Resolve returns the default subdomain for placeholder hosts.
func (p *PlaceholderFallbackResolver) Resolve(r *http.Request) string {
	if IsPlaceholderHost(r.Host) {
		return DefaultSubdomain
	}
	return ""
}

// Chain resolves a request to a tenant by trying each signal source in
// precedence order and looking its candidate up against the tenant table.
// The first candidate with a matching row wins; there is no conflict
// detection across sources. A candidate without a row does not stop the
// chain, so a path segment that merely looks like a subdomain falls
// through to the next rule.
type Chain struct {
	resolvers []Resolver
	provider  Provider
}

// NewChain creates the standard resolution chain: diagnostic query override,
// host subdomain, first path segment, then the placeholder-host fallback.
// Pass allowQueryOverride=false to disable the diagnostic override outside
// of test deployments.
func NewChain(provider Provider, allowQueryOverride bool) *Chain {
	resolvers := make([]Resolver, 0, 4)
	if allowQueryOverride {
		resolvers = append(resolvers, NewQueryResolver("shop"))
	}
	resolvers = append(resolvers,
		NewSubdomainResolver(),
		NewPathResolver(),
		NewPlaceholderFallbackResolver(),
	)
	return &Chain{resolvers: resolvers, provider: provider}
}

// NewCustomChain creates a chain with an explicit resolver list, mainly for
// tests that need to pin down individual precedence interactions.
func NewCustomChain(provider Provider, resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers, provider: provider}
}

// Resolve walks the chain and returns the first matching tenant.
// Returns ErrTenantNotFound when no signal source produces a known shop.
func (c *Chain) Resolve(ctx context.Context, r *http.Request) (*Tenant, error) {
	for _, resolver := range c.resolvers {
		candidate := sanitizer.NormalizeSubdomain(resolver.Resolve(r))
		if candidate == "" {
			continue
		}

		t, err := c.provider.GetBySubdomain(ctx, candidate)
		if err != nil {
			if errors.Is(err, ErrTenantNotFound) {
				continue
			}
			return nil, err
		}
		return t, nil
	}
	return nil, ErrTenantNotFound
}
