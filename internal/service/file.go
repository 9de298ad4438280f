package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/boibazar/boibazar/internal/model"
	"github.com/boibazar/boibazar/internal/repository"
	"github.com/boibazar/boibazar/internal/storage"
	"github.com/google/uuid"
)

type FileService struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
}

func NewFileService(fileRepo repository.FileRepository, storage storage.Storage) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  storage,
	}
}

// Upload stores a file owned by userID and records it under its sniffed
// MIME type. Accepting the upload is the caller's job.
func (s *FileService) Upload(ctx context.Context, userID, fileType string, file io.Reader, header *multipart.FileHeader, public bool) (*model.File, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	filename := uuid.New().String() + ext

	prefix := "private"
	if public {
		prefix = "public"
	}
	// avatar -> public/avatars/<uuid>.png
	storagePath := path.Join(prefix, fileType+"s", filename)
	// Peek buffers what DetectContentType reads, so the full body still
	// reaches storage.
	body := bufio.NewReaderSize(file, 512)
	head, err := body.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	mimeType := http.DetectContentType(head)

	if err := s.storage.Save(ctx, storagePath, mimeType, body); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	f := &model.File{
		ID:           uuid.New().String(),
		UserID:       userID,
		OwnerType:    model.FileOwnerUser,
		OwnerID:      userID,
		Type:         fileType,
		Filename:     filename,
		OriginalName: header.Filename,
		MimeType:     mimeType,
		Size:         header.Size,
		StoragePath:  storagePath,
		Public:       public,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.fileRepo.Create(ctx, f); err != nil {
		if delErr := s.storage.Delete(ctx, storagePath); delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	return f, nil
}

func (s *FileService) ByID(ctx context.Context, id string) (*model.File, error) {
	return s.fileRepo.ByID(ctx, id)
}

// URL links to f, or returns "" when no link can be made.
func (s *FileService) URL(ctx context.Context, f *model.File) string {
	if f == nil {
		return ""
	}
	url, err := s.storage.URL(ctx, f.StoragePath, f.Public)
	if err != nil {
		slog.Warn("failed to create file URL", "file_id", f.ID, "error", err)
		return ""
	}
	return url
}

// URLByID is URL for a file id, "" when the id is empty or unknown.
func (s *FileService) URLByID(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}
	f, err := s.fileRepo.ByID(ctx, id)
	if err != nil {
		return ""
	}
	return s.URL(ctx, f)
}

func (s *FileService) Avatar(ctx context.Context, userID string) (*model.File, error) {
	return s.fileRepo.FileByType(ctx, model.FileOwnerUser, userID, model.FileTypeAvatar)
}

// ReplaceAvatar uploads a new avatar and then removes the previous one.
func (s *FileService) ReplaceAvatar(ctx context.Context, userID string, file io.Reader, header *multipart.FileHeader) (*model.File, error) {
	previous, err := s.Avatar(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrFileNotFound) {
		return nil, err
	}

	uploaded, err := s.Upload(ctx, userID, model.FileTypeAvatar, file, header, true)
	if err != nil {
		return nil, err
	}

	if previous != nil {
		if err := s.Delete(ctx, previous.ID); err != nil {
			slog.Warn("failed to delete previous avatar", "user_id", userID, "file_id", previous.ID, "error", err)
		}
	}

	return uploaded, nil
}

// Delete removes a file record; the stored object is removed best effort.
func (s *FileService) Delete(ctx context.Context, fileID string) error {
	f, err := s.fileRepo.ByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	if err := s.storage.Delete(ctx, f.StoragePath); err != nil {
		slog.Warn("failed to delete file from storage", "error", err, "path", f.StoragePath)
	}

	if err := s.fileRepo.Delete(ctx, fileID); err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	return nil
}

func (s *FileService) DeleteUserAvatar(ctx context.Context, userID string) error {
	f, err := s.Avatar(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return nil
		}
		return err
	}

	return s.Delete(ctx, f.ID)
}
