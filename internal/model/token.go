package model

import "time"

const (
	TokenTypeEmailVerify   = "email_verify"
	TokenTypePasswordReset = "password_reset"
)

// Token is a single-use link token sent by email. It is consumed by setting
// UsedAt; rows stay until the cleanup command removes them.
type Token struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	Type      string     `db:"type"`
	Token     string     `db:"token"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// ExpiredAt reports whether an unused token ran out before now. Used tokens
// are reported as not expired so callers can tell the two failures apart.
func (t *Token) ExpiredAt(now time.Time) bool {
	return t.UsedAt == nil && !now.Before(t.ExpiresAt)
}
