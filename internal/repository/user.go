package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/boibazar/boibazar/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateEmail  = errors.New("email already exists")
	ErrProfileNotFound = errors.New("profile not found")
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	ByID(ctx context.Context, id string) (*model.User, error)
	ByEmail(ctx context.Context, email, provider string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	MarkMerged(ctx context.Context, oldID, newID string) error
	Delete(ctx context.Context, id string) error
	Overview(ctx context.Context, limit, offset int) ([]*model.UserOverview, error)
}

type userRepository struct {
	q sqlx.ExtContext
}

func NewUserRepository(q sqlx.ExtContext) UserRepository {
	return &userRepository{q: q}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now()
	}
	if user.Provider == "" {
		user.Provider = model.ProviderPassword
	}

	query := `INSERT INTO users (id, email, provider, password_hash, email_verified_at, created_at) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.q.ExecContext(ctx, query, user.ID, user.Email, user.Provider, user.PasswordHash, user.EmailVerifiedAt, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	return nil
}

func (r *userRepository) ByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := sqlx.GetContext(ctx, r.q, user, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) ByEmail(ctx context.Context, email, provider string) (*model.User, error) {
	user := &model.User{}
	err := sqlx.GetContext(ctx, r.q, user, `SELECT * FROM users WHERE email = $1 AND provider = $2`, email, provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET email = $1, password_hash = $2, email_verified_at = $3, merged_into = $4 WHERE id = $5`

	result, err := r.q.ExecContext(ctx, query, user.Email, user.PasswordHash, user.EmailVerifiedAt, user.MergedInto, user.ID)
	if err != nil {
		return err
	}
	return expectRows(result, ErrUserNotFound)
}

func (r *userRepository) MarkMerged(ctx context.Context, oldID, newID string) error {
	result, err := r.q.ExecContext(ctx, `UPDATE users SET merged_into = $1 WHERE id = $2`, newID, oldID)
	if err != nil {
		return err
	}
	return expectRows(result, ErrUserNotFound)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRows(result, ErrUserNotFound)
}

type overviewRow struct {
	ID              string     `db:"id"`
	Email           string     `db:"email"`
	Provider        string     `db:"provider"`
	EmailVerifiedAt *time.Time `db:"email_verified_at"`
	CreatedAt       time.Time  `db:"created_at"`
	Name            *string    `db:"name"`
	RollNumber      *string    `db:"roll_number"`
	InstituteName   *string    `db:"institute_name"`
	IsBanned        *bool      `db:"is_banned"`
	BanReason       *string    `db:"ban_reason"`
	BanExpiresAt    *time.Time `db:"ban_expires_at"`
}

// Overview lists active (not merged) accounts with their profile and ban state,
// newest first.
func (r *userRepository) Overview(ctx context.Context, limit, offset int) ([]*model.UserOverview, error) {
	query := `
		SELECT u.id, u.email, u.provider, u.email_verified_at, u.created_at,
		       p.name, p.roll_number, p.institute_name,
		       b.is_banned, b.ban_reason, b.ban_expires_at
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		LEFT JOIN user_ban_status b ON b.user_id = u.id
		WHERE u.merged_into IS NULL
		ORDER BY u.created_at DESC
		LIMIT $1 OFFSET $2
	`

	var rows []overviewRow
	err := sqlx.SelectContext(ctx, r.q, &rows, query, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]*model.UserOverview, 0, len(rows))
	for _, row := range rows {
		out = append(out, &model.UserOverview{
			ID:            row.ID,
			Email:         row.Email,
			Provider:      row.Provider,
			EmailVerified: row.EmailVerifiedAt != nil,
			CreatedAt:     row.CreatedAt,
			Name:          deref(row.Name),
			RollNumber:    deref(row.RollNumber),
			InstituteName: deref(row.InstituteName),
			IsBanned:      row.IsBanned != nil && *row.IsBanned,
			BanReason:     deref(row.BanReason),
			BanExpiresAt:  row.BanExpiresAt,
		})
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func expectRows(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
