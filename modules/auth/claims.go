package auth

import (
	"strconv"

	"github.com/barberbook/backend/pkg/jwt"
)

// Token type claim values. A session credential can never be consumed as a
// reset credential or vice versa; the typ claim is checked explicitly on
// every parse.
const (
	TokenTypeSession       = "session"
	TokenTypePasswordReset = "password-reset"
)

// RoleAdmin is the only role this backend issues today.
const RoleAdmin = "admin"

// SessionClaims is the payload of the 24-hour admin session credential.
// The embedded tenant id binds the credential to the shop it was minted
// for; the guard compares it against the tenant resolved for the request.
type SessionClaims struct {
	jwt.StandardClaims

	Username        string `json:"username"`
	Name            string `json:"name,omitempty"`
	Role            string `json:"role"`
	TenantID        int64  `json:"tenant_id"`
	TenantSubdomain string `json:"tenant_subdomain"`
	TokenType       string `json:"typ"`
}

// AdminID parses the subject claim, which carries the admin's numeric id.
func (c *SessionClaims) AdminID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// ResetClaims is the payload of the 1-hour single-use password-reset
// credential. It deliberately does not implement Valid(): expiry is checked
// by the reset service against its injected clock, together with the other
// consumption checks, so every failure collapses into one generic answer.
type ResetClaims struct {
	ID        string `json:"jti"`
	Subject   string `json:"sub"`
	Issuer    string `json:"iss,omitempty"`
	Audience  string `json:"aud,omitempty"`
	TenantID  int64  `json:"tenant_id"`
	TokenType string `json:"typ"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
