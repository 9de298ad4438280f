package model

import (
	"fmt"
	"math"
	"time"
)

type BanStatus struct {
	UserID       string     `db:"user_id" json:"-"`
	IsBanned     bool       `db:"is_banned" json:"is_banned"`
	BannedAt     *time.Time `db:"banned_at" json:"banned_at,omitempty"`
	BanReason    string     `db:"ban_reason" json:"ban_reason,omitempty"`
	BanExpiresAt *time.Time `db:"ban_expires_at" json:"ban_expires_at,omitempty"`
	BannedBy     string     `db:"banned_by" json:"banned_by,omitempty"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// BanRemaining is the display form of a ban's time left.
type BanRemaining struct {
	Permanent bool
	Expired   bool
	Days      int
}

func (r BanRemaining) String() string {
	switch {
	case r.Permanent:
		return "permanent"
	case r.Expired:
		return "expired"
	case r.Days == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", r.Days)
	}
}

// Remaining computes the time left on the ban at now, rounded up to whole days.
// A ban without expiry is permanent.
func (b *BanStatus) Remaining(now time.Time) BanRemaining {
	if b.BanExpiresAt == nil {
		return BanRemaining{Permanent: true}
	}

	left := b.BanExpiresAt.Sub(now)
	if left <= 0 {
		return BanRemaining{Expired: true}
	}

	days := int(math.Ceil(left.Hours() / 24))
	return BanRemaining{Days: days}
}

// IsExpired reports whether a timed ban has run out at now.
func (b *BanStatus) IsExpired(now time.Time) bool {
	return b.IsBanned && b.BanExpiresAt != nil && !now.Before(*b.BanExpiresAt)
}

// Active reports whether the ban blocks the account at now.
func (b *BanStatus) Active(now time.Time) bool {
	return b.IsBanned && !b.IsExpired(now)
}

// Outlasts reports whether b ends later than other. A permanent ban outlasts
// any timed one.
func (b *BanStatus) Outlasts(other *BanStatus) bool {
	switch {
	case other.BanExpiresAt == nil:
		return false
	case b.BanExpiresAt == nil:
		return true
	default:
		return b.BanExpiresAt.After(*other.BanExpiresAt)
	}
}
