// Package sanitizer normalizes untrusted input before validation and storage.
package sanitizer

import "strings"

// NormalizeEmail lowercases and trims an email address so lookups and
// uniqueness checks are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TrimString collapses surrounding whitespace on a free-text field.
func TrimString(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeSubdomain lowercases and trims a shop subdomain slug.
func NormalizeSubdomain(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
