package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for any login failure. One generic
	// error prevents username enumeration.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUnauthenticated is returned when no valid session credential is
	// presented.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrTenantMismatch is returned when a valid credential was minted for
	// a different shop than the one the request resolved to.
	ErrTenantMismatch = errors.New("credential tenant does not match request tenant")

	// ErrRoleForbidden is returned when the credential's role does not
	// satisfy the route requirement.
	ErrRoleForbidden = errors.New("role not permitted for this route")

	// ErrAdminNotFound is returned when no admin account matches within
	// the current tenant.
	ErrAdminNotFound = errors.New("admin not found")

	// ErrResetTokenInvalid covers every reset-token failure: bad
	// signature, wrong type, expired, tenant mismatch, and reuse. Callers
	// must not learn which check failed.
	ErrResetTokenInvalid = errors.New("invalid, expired, or already used reset token")

	// ErrResetTokenReused is the storage layer's report of a ledger
	// uniqueness violation. The service folds it into ErrResetTokenInvalid
	// before it reaches any caller.
	ErrResetTokenReused = errors.New("reset token already consumed")

	// ErrPasswordIncorrect is returned when the current password check of
	// a password change fails.
	ErrPasswordIncorrect = errors.New("current password is incorrect")
)
