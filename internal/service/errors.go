package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/boibazar/boibazar/internal/model"
)

// Credential errors.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAccountMerged      = errors.New("account was merged into another sign-in method")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidField       = errors.New("invalid field")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

// Token and session errors.
var (
	ErrTokenInvalid       = errors.New("invalid verification link")
	ErrTokenExpired       = errors.New("verification link has expired")
	ErrMergeTicketInvalid = errors.New("merge session is missing or expired")
)

// Authorization and data errors.
var (
	ErrNotSameInstitute   = errors.New("profile belongs to another institute")
	ErrNotAdmin           = errors.New("not admin")
	ErrMergeSourceMissing = errors.New("old account has no profile to merge")
	ErrRollNumberTaken    = errors.New("roll number already verified by its owner")
	ErrNotSubmitted       = errors.New("verification not submitted")
)

// BannedError is returned by Login when a confirmed account is banned.
type BannedError struct {
	Status *model.BanStatus
}

func (e *BannedError) Error() string {
	if e.Status != nil && e.Status.BanReason != "" {
		return "account banned: " + e.Status.BanReason
	}
	return "account banned"
}

// CooldownError is returned when a resend is requested inside the cooldown window.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting another email", e.Seconds())
}

// Seconds is RetryAfter rounded up, never below one.
func (e *CooldownError) Seconds() int {
	s := int((e.RetryAfter + time.Second - 1) / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}

// EmailMismatchError names both sides of a refused merge.
type EmailMismatchError struct {
	OldEmail string
	NewEmail string
}

func (e *EmailMismatchError) Error() string {
	return fmt.Sprintf("email mismatch: old account %s, signed in as %s", e.OldEmail, e.NewEmail)
}

// fieldError wraps ErrInvalidField with a user-facing message.
func fieldError(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidField, msg)
}
