package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/crypto/bcrypt"

	"github.com/barberbook/backend/pkg/jwt"
	"github.com/barberbook/backend/pkg/logger"
	"github.com/barberbook/backend/pkg/tenant"
)

const (
	// SessionTokenTTL is how long an admin session credential stays valid.
	SessionTokenTTL = 24 * time.Hour

	// ResetTokenTTL is how long a password-reset credential stays valid.
	ResetTokenTTL = time.Hour
)

// Service implements admin authentication for the resolved shop: login,
// password lifecycle, and the session credential flows. Reset-token issue
// and consumption live in reset.go on the same type.
type Service struct {
	storage Storage
	jwt     *jwt.Service
	mailer  Mailer
	clock   clock.Clock
	log     *slog.Logger

	bcryptCost       int
	resetURLTemplate string
}

// ServiceOption configures optional Service collaborators.
type ServiceOption func(*Service)

// WithClock replaces the wall clock, used by tests to control token expiry.
func WithClock(c clock.Clock) ServiceOption {
	return func(s *Service) { s.clock = c }
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) { s.bcryptCost = cost }
}

// NewService creates the auth service. The mailer may be a log-only sender
// in development.
func NewService(storage Storage, jwtService *jwt.Service, mailer Mailer, log *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		storage:    storage,
		jwt:        jwtService,
		mailer:     mailer,
		clock:      clock.New(),
		log:        log,
		bcryptCost: bcrypt.DefaultCost,

		resetURLTemplate: defaultResetURLTemplate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginResult is what a successful login returns to the handler.
type LoginResult struct {
	Token                 string
	Username              string
	Name                  string
	RequiresPasswordSetup bool
	TenantName            string
	IsDefaultTenant       bool
}

// Login authenticates an admin of the tenant carried by ctx. Every failure,
// unknown username, wrong password, or inactive account, reports
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	tn, ok := tenant.FromContext(ctx)
	if !ok {
		return nil, tenant.ErrNoTenantInContext
	}

	admin, err := s.storage.GetAdminByUsername(ctx, tn.ID, username)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			// Burn a hash comparison so the miss costs the same as a
			// wrong password.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.IssueSessionToken(admin, tn)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	s.log.InfoContext(ctx, "admin logged in", logger.AdminID(admin.ID))

	return &LoginResult{
		Token:                 token,
		Username:              admin.Username,
		Name:                  admin.Name,
		RequiresPasswordSetup: !admin.HasCustomPassword,
		TenantName:            tn.Name,
		IsDefaultTenant:       tn.Subdomain == tenant.DefaultSubdomain,
	}, nil
}

// dummyHash is a bcrypt hash of a random string nobody knows; compared
// against on unknown-username logins to equalize timing.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// IssueSessionToken mints a session credential bound to the admin's shop.
func (s *Service) IssueSessionToken(admin *Admin, tn *tenant.Tenant) (string, error) {
	now := s.clock.Now()
	claims := SessionClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   strconv.FormatInt(admin.ID, 10),
			Issuer:    s.jwt.Issuer(),
			Audience:  s.jwt.Audience(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(SessionTokenTTL).Unix(),
		},
		Username:        admin.Username,
		Name:            admin.Name,
		Role:            RoleAdmin,
		TenantID:        tn.ID,
		TenantSubdomain: tn.Subdomain,
		TokenType:       TokenTypeSession,
	}
	return s.jwt.Generate(claims)
}

// ParseSessionToken validates a session credential: signature, expiry,
// issuer/audience, and the session token type. A reset token presented here
// fails the typ check.
func (s *Service) ParseSessionToken(tokenString string) (*SessionClaims, error) {
	var claims SessionClaims
	if err := s.jwt.Parse(tokenString, &claims); err != nil {
		return nil, ErrUnauthenticated
	}
	if claims.TokenType != TokenTypeSession {
		return nil, ErrUnauthenticated
	}
	return &claims, nil
}

// SetupPassword sets the first operator-chosen password for an admin still
// on the provisioning credential. It flips HasCustomPassword.
func (s *Service) SetupPassword(ctx context.Context, adminID int64, newPassword string) error {
	tn, ok := tenant.FromContext(ctx)
	if !ok {
		return tenant.ErrNoTenantInContext
	}

	hash, err := hashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.storage.UpdatePassword(ctx, tn.ID, adminID, hash); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "admin password set up", logger.AdminID(adminID))
	return nil
}

// ChangePassword replaces an admin's password after verifying the current
// one.
func (s *Service) ChangePassword(ctx context.Context, adminID int64, currentPassword, newPassword string) error {
	tn, ok := tenant.FromContext(ctx)
	if !ok {
		return tenant.ErrNoTenantInContext
	}

	admin, err := s.storage.GetAdminByID(ctx, tn.ID, adminID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrPasswordIncorrect
	}

	hash, err := hashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.storage.UpdatePassword(ctx, tn.ID, admin.ID, hash); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "admin password changed", logger.AdminID(admin.ID))
	return nil
}

func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
