package model

import "time"

const (
	NotificationVerificationApproved = "verification_approved"
	NotificationVerificationRejected = "verification_rejected"
	NotificationAccountMerged        = "account_merged"
)

type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	Type      string    `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
