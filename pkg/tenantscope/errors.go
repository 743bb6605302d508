package tenantscope

import "errors"

var (
	// ErrNotFound is returned for missing rows and, deliberately, for rows
	// that exist but belong to another shop. Foreign rows must be
	// indistinguishable from absent ones.
	ErrNotFound = errors.New("record not found")
)
