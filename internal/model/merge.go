package model

import "time"

// MergeTicket links the re-authentication of an old password account to the
// federated sign-in that completes the merge. Snapshot holds the old profile
// as JSON.
type MergeTicket struct {
	ID           string     `db:"id"`
	OldAccountID string     `db:"old_account_id"`
	OldEmail     string     `db:"old_email"`
	Snapshot     string     `db:"snapshot"`
	ExpiresAt    time.Time  `db:"expires_at"`
	UsedAt       *time.Time `db:"used_at"`
	CreatedAt    time.Time  `db:"created_at"`
}

func (t *MergeTicket) IsValid(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
