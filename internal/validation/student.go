package validation

import (
	"errors"
	"regexp"
	"strings"
)

var (
	digitsPattern = regexp.MustCompile(`^[0-9]{1,20}$`)
	// Bangladeshi mobile numbers, with or without the country code.
	phonePattern = regexp.MustCompile(`^(\+?880)?01[3-9][0-9]{8}$`)
)

// ValidateRollNumber accepts the board roll number: digits only.
func ValidateRollNumber(roll string) error {
	roll = strings.TrimSpace(roll)
	if roll == "" {
		return errors.New("roll number is required")
	}
	if !digitsPattern.MatchString(roll) {
		return errors.New("roll number must contain digits only")
	}
	return nil
}

func ValidateRegistrationNumber(reg string) error {
	reg = strings.TrimSpace(reg)
	if reg == "" {
		return errors.New("registration number is required")
	}
	if !digitsPattern.MatchString(reg) {
		return errors.New("registration number must contain digits only")
	}
	return nil
}

// ValidatePhone allows an empty phone; it is optional on the profile.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}
	if !phonePattern.MatchString(phone) {
		return errors.New("invalid phone number")
	}
	return nil
}
