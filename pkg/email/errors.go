package email

import (
	"errors"
	"regexp"
)

var (
	ErrFailedToSendEmail = errors.New("email: failed to send")
	ErrInvalidConfig     = errors.New("email: invalid config")
	ErrInvalidRecipient  = errors.New("email: invalid recipient address")
	ErrMissingSubject    = errors.New("email: missing subject")
	ErrMissingBody       = errors.New("email: missing body")
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
