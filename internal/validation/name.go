package validation

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxNameLength = 100

// ValidateName checks a student's display name. The limit counts characters,
// not bytes, so Bangla names get the same room as Latin ones.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errors.New("name is required")
	}
	if utf8.RuneCountInString(trimmed) > maxNameLength {
		return errors.New("name is too long (max 100 characters)")
	}
	if strings.IndexFunc(trimmed, unicode.IsControl) >= 0 {
		return errors.New("name contains invalid characters")
	}
	return nil
}
