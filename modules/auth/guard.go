package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/barberbook/backend/core"
	"github.com/barberbook/backend/pkg/tenant"
)

type claimsContextKey struct{}

// WithClaims returns a context carrying the authenticated session claims.
func WithClaims(ctx context.Context, claims *SessionClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the session claims stored by the middleware.
func ClaimsFromContext(ctx context.Context) (*SessionClaims, error) {
	claims, ok := ctx.Value(claimsContextKey{}).(*SessionClaims)
	if !ok || claims == nil {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// Guard is one check in the authorization chain. Guards run in order and
// the first failure wins; its error decides the response status.
type Guard func(ctx context.Context, claims *SessionClaims) error

// Authenticated passes for any parsed claims. It exists so a route can
// state its full requirement chain explicitly.
func Authenticated() Guard {
	return func(_ context.Context, claims *SessionClaims) error {
		if claims == nil {
			return ErrUnauthenticated
		}
		return nil
	}
}

// TenantMatches rejects credentials minted for a different shop than the
// one the request resolved to.
func TenantMatches() Guard {
	return func(ctx context.Context, claims *SessionClaims) error {
		tn, ok := tenant.FromContext(ctx)
		if !ok {
			return tenant.ErrNoTenantInContext
		}
		if claims.TenantID != tn.ID {
			return ErrTenantMismatch
		}
		return nil
	}
}

// HasRole requires the credential to carry one of the given roles.
func HasRole(roles ...string) Guard {
	return func(_ context.Context, claims *SessionClaims) error {
		for _, role := range roles {
			if claims.Role == role {
				return nil
			}
		}
		return ErrRoleForbidden
	}
}

// Middleware extracts the bearer credential, validates it through the auth
// service, runs the guards, and stores the claims in the request context.
// Missing or invalid credentials answer 401; a failed guard answers 403.
func Middleware(s *Service, guards ...Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				core.Error(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			claims, err := s.ParseSessionToken(tokenString)
			if err != nil {
				core.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := r.Context()
			for _, guard := range guards {
				if err := guard(ctx, claims); err != nil {
					status := guardStatus(err)
					core.Error(w, status, http.StatusText(status))
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}

// RequireAdmin is the standard guard chain for admin routes.
func RequireAdmin(s *Service) func(http.Handler) http.Handler {
	return Middleware(s, Authenticated(), TenantMatches(), HasRole(RoleAdmin))
}

func guardStatus(err error) int {
	if errors.Is(err, ErrUnauthenticated) || errors.Is(err, tenant.ErrNoTenantInContext) {
		return http.StatusUnauthorized
	}
	return http.StatusForbidden
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
