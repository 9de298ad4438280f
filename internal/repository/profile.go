package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/boibazar/boibazar/internal/model"
	"github.com/jmoiron/sqlx"
)

type ProfileRepository interface {
	ByUserID(ctx context.Context, userID string) (*model.Profile, error)
	Create(ctx context.Context, profile *model.Profile) error
	Update(ctx context.Context, profile *model.Profile) error
	Upsert(ctx context.Context, profile *model.Profile) error
	SetBanned(ctx context.Context, userID string, banned bool) error
	Delete(ctx context.Context, userID string) error
}

type profileRepository struct {
	q sqlx.ExtContext
}

func NewProfileRepository(q sqlx.ExtContext) ProfileRepository {
	return &profileRepository{q: q}
}

func (r *profileRepository) ByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var profile model.Profile
	err := sqlx.GetContext(ctx, r.q, &profile, `SELECT * FROM profiles WHERE user_id = $1`, userID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	stampProfile(profile)

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO profiles (user_id, name, roll_number, semester, department, institute_name, phone, is_banned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, profile.UserID, profile.Name, profile.RollNumber, profile.Semester, profile.Department,
		profile.InstituteName, profile.Phone, profile.IsBanned, profile.CreatedAt, profile.UpdatedAt)

	return err
}

func (r *profileRepository) Update(ctx context.Context, profile *model.Profile) error {
	profile.UpdatedAt = now()

	result, err := r.q.ExecContext(ctx, `
		UPDATE profiles
		SET name = $1, roll_number = $2, semester = $3, department = $4,
		    institute_name = $5, phone = $6, updated_at = $7
		WHERE user_id = $8
	`, profile.Name, profile.RollNumber, profile.Semester, profile.Department,
		profile.InstituteName, profile.Phone, profile.UpdatedAt, profile.UserID)
	if err != nil {
		return err
	}

	return expectRows(result, ErrProfileNotFound)
}

// Upsert writes every column, keeping the stored created_at on conflict only
// when the incoming profile has none.
func (r *profileRepository) Upsert(ctx context.Context, profile *model.Profile) error {
	stampProfile(profile)

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO profiles (user_id, name, roll_number, semester, department, institute_name, phone, is_banned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			name = excluded.name,
			roll_number = excluded.roll_number,
			semester = excluded.semester,
			department = excluded.department,
			institute_name = excluded.institute_name,
			phone = excluded.phone,
			is_banned = excluded.is_banned,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, profile.UserID, profile.Name, profile.RollNumber, profile.Semester, profile.Department,
		profile.InstituteName, profile.Phone, profile.IsBanned, profile.CreatedAt, profile.UpdatedAt)

	return err
}

// SetBanned mirrors the ban flag onto the profile. A missing profile is not an error.
func (r *profileRepository) SetBanned(ctx context.Context, userID string, banned bool) error {
	_, err := r.q.ExecContext(ctx, `UPDATE profiles SET is_banned = $1, updated_at = $2 WHERE user_id = $3`, banned, now(), userID)
	return err
}

func (r *profileRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	return err
}

func stampProfile(profile *model.Profile) {
	ts := now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = ts
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = ts
	}
}
