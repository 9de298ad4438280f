package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/boibazar/boibazar/internal/model"
	"github.com/jmoiron/sqlx"
)

var ErrVerificationNotFound = errors.New("verification not found")

type VerificationRepository interface {
	Document(ctx context.Context, userID string) (*model.DocumentVerification, error)
	Face(ctx context.Context, userID string) (*model.FaceVerification, error)
	SaveDocument(ctx context.Context, doc *model.DocumentVerification) error
	SaveFace(ctx context.Context, face *model.FaceVerification) error
	SetDocumentStatus(ctx context.Context, userID, status, feedback string) error
	SetFaceStatus(ctx context.Context, userID, status, feedback string) error
	RollNumberTaken(ctx context.Context, rollNo, exceptUserID string) (bool, error)
	UserIDsByStatus(ctx context.Context, status string) ([]string, error)
	DeleteDocument(ctx context.Context, userID string) error
	DeleteFace(ctx context.Context, userID string) error
}

type verificationRepository struct {
	q sqlx.ExtContext
}

func NewVerificationRepository(q sqlx.ExtContext) VerificationRepository {
	return &verificationRepository{q: q}
}

func (r *verificationRepository) Document(ctx context.Context, userID string) (*model.DocumentVerification, error) {
	var d model.DocumentVerification
	err := sqlx.GetContext(ctx, r.q, &d, `SELECT * FROM verification_data WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVerificationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *verificationRepository) Face(ctx context.Context, userID string) (*model.FaceVerification, error) {
	var f model.FaceVerification
	err := sqlx.GetContext(ctx, r.q, &f, `SELECT * FROM face_verification WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVerificationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// SaveDocument stores a (re)submission. Resubmitting resets the stage to pending.
func (r *verificationRepository) SaveDocument(ctx context.Context, doc *model.DocumentVerification) error {
	ts := now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = ts
	}
	doc.UpdatedAt = ts
	doc.Status = model.VerificationPending
	doc.IsVerified = false
	doc.Feedback = ""

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO verification_data (user_id, roll_no, reg_no, document_file_id, is_verified, status, feedback, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			roll_no = excluded.roll_no,
			reg_no = excluded.reg_no,
			document_file_id = excluded.document_file_id,
			is_verified = excluded.is_verified,
			status = excluded.status,
			feedback = excluded.feedback,
			updated_at = excluded.updated_at
	`, doc.UserID, doc.RollNo, doc.RegNo, doc.DocumentFileID, doc.IsVerified, doc.Status, doc.Feedback, doc.CreatedAt, doc.UpdatedAt)
	return err
}

func (r *verificationRepository) SaveFace(ctx context.Context, face *model.FaceVerification) error {
	ts := now()
	if face.CreatedAt.IsZero() {
		face.CreatedAt = ts
	}
	face.UpdatedAt = ts
	face.Status = model.VerificationPending
	face.IsVerified = false
	face.Feedback = ""

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO face_verification (user_id, photo_file_id, is_verified, status, feedback, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			photo_file_id = excluded.photo_file_id,
			is_verified = excluded.is_verified,
			status = excluded.status,
			feedback = excluded.feedback,
			updated_at = excluded.updated_at
	`, face.UserID, face.PhotoFileID, face.IsVerified, face.Status, face.Feedback, face.CreatedAt, face.UpdatedAt)
	return err
}

func (r *verificationRepository) SetDocumentStatus(ctx context.Context, userID, status, feedback string) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE verification_data SET status = $1, is_verified = $2, feedback = $3, updated_at = $4 WHERE user_id = $5
	`, status, status == model.VerificationApproved, feedback, now(), userID)
	if err != nil {
		return err
	}
	return expectRows(result, ErrVerificationNotFound)
}

func (r *verificationRepository) SetFaceStatus(ctx context.Context, userID, status, feedback string) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE face_verification SET status = $1, is_verified = $2, feedback = $3, updated_at = $4 WHERE user_id = $5
	`, status, status == model.VerificationApproved, feedback, now(), userID)
	if err != nil {
		return err
	}
	return expectRows(result, ErrVerificationNotFound)
}

// RollNumberTaken reports whether another account already submitted rollNo.
func (r *verificationRepository) RollNumberTaken(ctx context.Context, rollNo, exceptUserID string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n, `
		SELECT COUNT(*) FROM verification_data WHERE roll_no = $1 AND user_id <> $2
	`, rollNo, exceptUserID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UserIDsByStatus lists users with at least one stage in status, oldest
// submission first.
func (r *verificationRepository) UserIDsByStatus(ctx context.Context, status string) ([]string, error) {
	var ids []string
	err := sqlx.SelectContext(ctx, r.q, &ids, `
		SELECT user_id FROM (
			SELECT user_id, updated_at FROM verification_data WHERE status = $1
			UNION ALL
			SELECT user_id, updated_at FROM face_verification WHERE status = $1
		) s
		GROUP BY user_id
		ORDER BY MIN(updated_at)
	`, status)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *verificationRepository) DeleteDocument(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM verification_data WHERE user_id = $1`, userID)
	return err
}

func (r *verificationRepository) DeleteFace(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM face_verification WHERE user_id = $1`, userID)
	return err
}
