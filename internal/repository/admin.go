package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type AdminRepository interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	Grant(ctx context.Context, userID, grantedBy string) error
	Revoke(ctx context.Context, userID string) error
}

type adminRepository struct {
	q sqlx.ExtContext
}

func NewAdminRepository(q sqlx.ExtContext) AdminRepository {
	return &adminRepository{q: q}
}

func (r *adminRepository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(*) FROM admin_users WHERE user_id = $1`, userID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Grant is idempotent.
func (r *adminRepository) Grant(ctx context.Context, userID, grantedBy string) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO admin_users (user_id, granted_by, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, grantedBy, now())
	return err
}

func (r *adminRepository) Revoke(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM admin_users WHERE user_id = $1`, userID)
	return err
}
