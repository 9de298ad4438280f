package validation

import (
	"errors"
	"net/mail"
	"strings"
)

// NormalizeEmail is the stored form of an address. Accounts of both
// providers are matched on it, so a password account and a google account
// with case-only differences share one email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail accepts a bare RFC 5322 address of at most 254 characters.
// Display-name forms such as "Rahim <rahim@x.com>" are refused.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email address is required")
	}
	if len(email) > 254 {
		return errors.New("email address is too long (max 254 characters)")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return errors.New("invalid email address format")
	}
	if !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return errors.New("email domain must contain a dot")
	}

	return nil
}
