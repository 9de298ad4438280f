package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/boibazar/boibazar/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

type FileRepository interface {
	Create(ctx context.Context, file *model.File) error
	ByID(ctx context.Context, id string) (*model.File, error)
	FileByType(ctx context.Context, ownerType, ownerID, fileType string) (*model.File, error)
	AllUserFiles(ctx context.Context, userID string) ([]*model.File, error)
	Delete(ctx context.Context, id string) error
}

type fileRepository struct {
	q sqlx.ExtContext
}

func NewFileRepository(q sqlx.ExtContext) FileRepository {
	return &fileRepository{q: q}
}

func (r *fileRepository) Create(ctx context.Context, file *model.File) error {
	if file.CreatedAt.IsZero() {
		file.CreatedAt = now()
	}

	query := `INSERT INTO files (id, user_id, owner_type, owner_id, type, filename, original_name, mime_type, size, storage_path, public, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.q.ExecContext(ctx, query,
		file.ID,
		file.UserID,
		file.OwnerType,
		file.OwnerID,
		file.Type,
		file.Filename,
		file.OriginalName,
		file.MimeType,
		file.Size,
		file.StoragePath,
		file.Public,
		file.CreatedAt,
	)

	return err
}

func (r *fileRepository) ByID(ctx context.Context, id string) (*model.File, error) {
	file := &model.File{}
	err := sqlx.GetContext(ctx, r.q, file, `SELECT * FROM files WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// FileByType returns the newest file of fileType attached to the owner.
func (r *fileRepository) FileByType(ctx context.Context, ownerType, ownerID, fileType string) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE owner_type = $1 AND owner_id = $2 AND type = $3 ORDER BY created_at DESC LIMIT 1`

	err := sqlx.GetContext(ctx, r.q, file, query, ownerType, ownerID, fileType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (r *fileRepository) AllUserFiles(ctx context.Context, userID string) ([]*model.File, error) {
	var files []*model.File
	query := `SELECT * FROM files WHERE user_id = $1 ORDER BY created_at DESC`

	err := sqlx.SelectContext(ctx, r.q, &files, query, userID)
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (r *fileRepository) Delete(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
	return err
}
