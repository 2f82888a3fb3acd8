package validation

import (
	"errors"
	"net/mail"
	"strings"
)

const emailMaxLength = 254

var (
	ErrEmailRequired = errors.New("email address is required")
	ErrEmailTooLong  = errors.New("email address is too long (max 254 characters)")
	ErrEmailInvalid  = errors.New("invalid email address")
)

// NormalizeEmail returns the form stored in users.email and used for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail accepts one bare address. The value becomes a login, so
// display names ("Ana <ana@example.com>") and single-label domains are refused.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > emailMaxLength {
		return ErrEmailTooLong
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return ErrEmailInvalid
	}

	_, domain, _ := strings.Cut(addr.Address, "@")
	if !strings.Contains(domain, ".") || strings.HasSuffix(domain, ".") {
		return ErrEmailInvalid
	}
	return nil
}
