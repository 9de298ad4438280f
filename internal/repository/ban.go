package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/boibazar/boibazar/internal/model"
	"github.com/jmoiron/sqlx"
)

var ErrBanNotFound = errors.New("ban status not found")

type BanRepository interface {
	ByUserID(ctx context.Context, userID string) (*model.BanStatus, error)
	Upsert(ctx context.Context, status *model.BanStatus) error
	Clear(ctx context.Context, userID string) error
	ListBanned(ctx context.Context) ([]*model.BanStatus, error)
}

type banRepository struct {
	q sqlx.ExtContext
}

func NewBanRepository(q sqlx.ExtContext) BanRepository {
	return &banRepository{q: q}
}

func (r *banRepository) ByUserID(ctx context.Context, userID string) (*model.BanStatus, error) {
	var b model.BanStatus
	err := sqlx.GetContext(ctx, r.q, &b, `SELECT * FROM user_ban_status WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *banRepository) Upsert(ctx context.Context, status *model.BanStatus) error {
	status.UpdatedAt = now()

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO user_ban_status (user_id, is_banned, banned_at, ban_reason, ban_expires_at, banned_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			is_banned = excluded.is_banned,
			banned_at = excluded.banned_at,
			ban_reason = excluded.ban_reason,
			ban_expires_at = excluded.ban_expires_at,
			banned_by = excluded.banned_by,
			updated_at = excluded.updated_at
	`, status.UserID, status.IsBanned, status.BannedAt, status.BanReason, status.BanExpiresAt, status.BannedBy, status.UpdatedAt)
	return err
}

// Clear lifts the ban, keeping the row and its history fields.
func (r *banRepository) Clear(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `UPDATE user_ban_status SET is_banned = $1, updated_at = $2 WHERE user_id = $3`, false, now(), userID)
	return err
}

func (r *banRepository) ListBanned(ctx context.Context) ([]*model.BanStatus, error) {
	var out []*model.BanStatus
	err := sqlx.SelectContext(ctx, r.q, &out, `SELECT * FROM user_ban_status WHERE is_banned = $1 ORDER BY updated_at DESC`, true)
	if err != nil {
		return nil, err
	}
	return out, nil
}
