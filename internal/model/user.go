package model

import (
	"time"
)

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// User is an authenticatable account. The same email may exist once per
// provider; the merge flow folds a password account into a google one.
type User struct {
	ID              string     `db:"id"`
	Email           string     `db:"email"`
	Provider        string     `db:"provider"`
	PasswordHash    *string    `db:"password_hash"` // nil for federated accounts
	EmailVerifiedAt *time.Time `db:"email_verified_at"`
	MergedInto      *string    `db:"merged_into"`
	CreatedAt       time.Time  `db:"created_at"`

	// Computed fields (not in database)
	AvatarURL string `db:"-"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

func (u *User) IsMerged() bool {
	return u.MergedInto != nil && *u.MergedInto != ""
}

// UserOverview is one row of the admin user dashboard.
type UserOverview struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Provider      string     `json:"provider"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	Name          string     `json:"name"`
	RollNumber    string     `json:"roll_number"`
	InstituteName string     `json:"institute_name"`
	IsBanned      bool       `json:"is_banned"`
	BanReason     string     `json:"ban_reason,omitempty"`
	BanExpiresAt  *time.Time `json:"ban_expires_at,omitempty"`
}
