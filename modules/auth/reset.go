package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/barberbook/backend/pkg/logger"
	"github.com/barberbook/backend/pkg/tenant"
)

// defaultResetURLTemplate builds the link embedded in the recovery email;
// the placeholders are the shop subdomain and the token.
const defaultResetURLTemplate = "https://%s.thebarberbook.com/reset-password?token=%s"

// WithResetURLTemplate overrides the recovery link template. It must contain
// two %s verbs: subdomain, then token.
func WithResetURLTemplate(tmpl string) ServiceOption {
	return func(s *Service) { s.resetURLTemplate = tmpl }
}

// RequestPasswordReset starts recovery for the given email within the
// current tenant. It never reveals whether the email matched an account:
// unknown addresses succeed silently.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	tn, ok := tenant.FromContext(ctx)
	if !ok {
		return tenant.ErrNoTenantInContext
	}

	admin, err := s.storage.GetAdminByEmail(ctx, tn.ID, emailAddr)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			s.log.InfoContext(ctx, "password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("lookup admin by email: %w", err)
	}

	token, err := s.IssueResetToken(admin, tn)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	resetURL := fmt.Sprintf(s.resetURLTemplate, tn.Subdomain, token)
	if err := s.mailer.SendPasswordReset(ctx, admin.Email, tn, resetURL); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}

	s.log.InfoContext(ctx, "password reset email sent", logger.AdminID(admin.ID))
	return nil
}

// IssueResetToken mints a 1-hour single-use reset credential. The jti makes
// every issuance unique, so two tokens minted for the same admin in the
// same second still hash differently in the consumption ledger.
func (s *Service) IssueResetToken(admin *Admin, tn *tenant.Tenant) (string, error) {
	now := s.clock.Now()
	claims := ResetClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatInt(admin.ID, 10),
		Issuer:    s.jwt.Issuer(),
		Audience:  s.jwt.Audience(),
		TenantID:  tn.ID,
		TokenType: TokenTypePasswordReset,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ResetTokenTTL).Unix(),
	}
	return s.jwt.Generate(claims)
}

// ResetPassword validates and consumes a reset token, then sets the new
// password. The checks run in order: signature and issuer/audience, token
// type, expiry against the service clock, tenant binding against the
// request's tenant, admin existence, and the consumption ledger. Every
// failure reports ErrResetTokenInvalid; callers never learn which check
// rejected the token.
func (s *Service) ResetPassword(ctx context.Context, tokenString, newPassword string) error {
	tn, ok := tenant.FromContext(ctx)
	if !ok {
		return tenant.ErrNoTenantInContext
	}

	var claims ResetClaims
	if err := s.jwt.Parse(tokenString, &claims); err != nil {
		return ErrResetTokenInvalid
	}
	if claims.TokenType != TokenTypePasswordReset {
		return ErrResetTokenInvalid
	}
	if claims.ExpiresAt <= s.clock.Now().Unix() {
		return ErrResetTokenInvalid
	}
	if claims.TenantID != tn.ID {
		// A token minted on one shop must not reset a password on another,
		// even if the admin id happens to exist there.
		return ErrResetTokenInvalid
	}

	adminID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return ErrResetTokenInvalid
	}

	admin, err := s.storage.GetAdminByID(ctx, tn.ID, adminID)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("lookup admin: %w", err)
	}

	tokenHash := hashResetToken(tokenString)

	used, err := s.storage.UsedResetTokenHashes(ctx, tn.ID, admin.ID)
	if err != nil {
		return fmt.Errorf("load used tokens: %w", err)
	}
	if anyHashMatches(used, tokenHash) {
		return ErrResetTokenInvalid
	}

	hash, err := hashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.storage.ConsumeResetToken(ctx, ConsumeResetTokenParams{
		TenantID:        tn.ID,
		AdminID:         admin.ID,
		NewPasswordHash: hash,
		TokenHash:       tokenHash,
		UsedAt:          s.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, ErrResetTokenReused) || errors.Is(err, ErrAdminNotFound) {
			// The ledger scan raced another consumption of the same token;
			// the unique index arbitrated and this request lost.
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	s.log.InfoContext(ctx, "password reset completed", logger.AdminID(admin.ID))
	return nil
}

// hashResetToken derives the deterministic ledger key for a token. The raw
// token never touches storage.
func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// anyHashMatches scans every ledger row with a constant-time comparison.
func anyHashMatches(hashes []string, target string) bool {
	found := false
	for _, h := range hashes {
		if subtle.ConstantTimeCompare([]byte(h), []byte(target)) == 1 {
			found = true
		}
	}
	return found
}
