package validator

import (
	"fmt"
	"strings"
)

// PasswordStrengthConfig controls password requirements.
type PasswordStrengthConfig struct {
	MinLength      int
	MaxLength      int
	MinCharClasses int // of: lowercase, uppercase, digit, special
}

// DefaultPasswordStrength returns the baseline policy for admin passwords.
func DefaultPasswordStrength() PasswordStrengthConfig {
	return PasswordStrengthConfig{
		MinLength:      8,
		MaxLength:      128,
		MinCharClasses: 2,
	}
}

// commonPasswords is a short list of frequently compromised passwords.
var commonPasswords = map[string]bool{
	"password":    true,
	"password1":   true,
	"password123": true,
	"123456":      true,
	"12345678":    true,
	"123456789":   true,
	"qwerty":      true,
	"qwerty123":   true,
	"abc123":      true,
	"letmein":     true,
	"welcome":     true,
	"admin":       true,
	"admin123":    true,
	"iloveyou":    true,
	"dragon":      true,
	"sunshine":    true,
	"barber":      true,
	"barbershop":  true,
}

// StrongPassword checks length and character class requirements.
func StrongPassword(field, value string, cfg PasswordStrengthConfig) Rule {
	return Rule{
		Check: func() bool {
			if len(value) < cfg.MinLength || len(value) > cfg.MaxLength {
				return false
			}
			return charClasses(value) >= cfg.MinCharClasses
		},
		Error: ValidationError{
			Field: field,
			Message: fmt.Sprintf("must be %d-%d characters with at least %d character classes",
				cfg.MinLength, cfg.MaxLength, cfg.MinCharClasses),
		},
	}
}

// NotCommonPassword rejects passwords from the common-password list.
func NotCommonPassword(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return !commonPasswords[strings.ToLower(value)]
		},
		Error: ValidationError{
			Field:   field,
			Message: "is too common",
		},
	}
}

// PasswordsMatch checks that the confirmation equals the password.
func PasswordsMatch(field, password, confirm string) Rule {
	return Rule{
		Check: func() bool {
			return password == confirm
		},
		Error: ValidationError{
			Field:   field,
			Message: "does not match the password",
		},
	}
}

func charClasses(s string) int {
	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}

	n := 0
	for _, ok := range []bool{lower, upper, digit, special} {
		if ok {
			n++
		}
	}
	return n
}
