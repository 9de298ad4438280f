package validation

import (
	"errors"
	"strings"
)

// ValidatePassword enforces 8 to 72 bytes (the bcrypt input limit) and rejects
// a handful of trivially guessable passwords.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	if len(password) > 72 {
		return errors.New("password must not exceed 72 characters")
	}

	lower := strings.ToLower(password)
	common := []string{"password", "12345678", "qwerty", "boibazar"}
	for _, pattern := range common {
		if strings.Contains(lower, pattern) {
			return errors.New("password is too common, please choose a stronger one")
		}
	}

	return nil
}
