package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"slices"
	"strings"

	"github.com/boibazar/boibazar/internal/model"
	"github.com/boibazar/boibazar/internal/repository"
	"github.com/boibazar/boibazar/internal/validation"
)

// VerificationService handles the two-stage identity review: a document
// (roll and registration numbers with a scan) and a face photo.
type VerificationService struct {
	store       *repository.Store
	fileService *FileService
}

func NewVerificationService(store *repository.Store, fileService *FileService) *VerificationService {
	return &VerificationService{
		store:       store,
		fileService: fileService,
	}
}

func (s *VerificationService) SubmitDocument(ctx context.Context, userID, rollNo, regNo string, file io.Reader, header *multipart.FileHeader) (*model.DocumentVerification, error) {
	rollNo = strings.TrimSpace(rollNo)
	regNo = strings.TrimSpace(regNo)
	if err := validation.ValidateRollNumber(rollNo); err != nil {
		return nil, fieldError(err.Error())
	}
	if err := validation.ValidateRegistrationNumber(regNo); err != nil {
		return nil, fieldError(err.Error())
	}

	taken, err := s.store.Verifications.RollNumberTaken(ctx, rollNo, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check roll number: %w", err)
	}
	if taken {
		return nil, ErrRollNumberTaken
	}

	uploaded, err := s.fileService.Upload(ctx, userID, model.FileTypeVerificationDoc, file, header, false)
	if err != nil {
		return nil, err
	}

	doc := &model.DocumentVerification{
		UserID:         userID,
		RollNo:         rollNo,
		RegNo:          regNo,
		DocumentFileID: uploaded.ID,
	}
	existing, err := s.store.Verifications.Document(ctx, userID)
	if err == nil {
		doc.CreatedAt = existing.CreatedAt
	}

	if err := s.store.Verifications.SaveDocument(ctx, doc); err != nil {
		s.discard(ctx, uploaded.ID)
		return nil, fmt.Errorf("failed to save document verification: %w", err)
	}
	if existing != nil && existing.DocumentFileID != "" && existing.DocumentFileID != uploaded.ID {
		s.discard(ctx, existing.DocumentFileID)
	}

	slog.Info("verification document submitted", "user_id", userID)
	return doc, nil
}

func (s *VerificationService) SubmitFacePhoto(ctx context.Context, userID string, file io.Reader, header *multipart.FileHeader) (*model.FaceVerification, error) {
	uploaded, err := s.fileService.Upload(ctx, userID, model.FileTypeVerificationPhoto, file, header, false)
	if err != nil {
		return nil, err
	}

	face := &model.FaceVerification{
		UserID:      userID,
		PhotoFileID: uploaded.ID,
	}
	existing, err := s.store.Verifications.Face(ctx, userID)
	if err == nil {
		face.CreatedAt = existing.CreatedAt
	}

	if err := s.store.Verifications.SaveFace(ctx, face); err != nil {
		s.discard(ctx, uploaded.ID)
		return nil, fmt.Errorf("failed to save face verification: %w", err)
	}
	if existing != nil && existing.PhotoFileID != "" && existing.PhotoFileID != uploaded.ID {
		s.discard(ctx, existing.PhotoFileID)
	}

	slog.Info("verification face photo submitted", "user_id", userID)
	return face, nil
}

func (s *VerificationService) discard(ctx context.Context, fileID string) {
	if err := s.fileService.Delete(ctx, fileID); err != nil {
		slog.Warn("failed to discard verification upload", "file_id", fileID, "error", err)
	}
}

// Combined merges both stages with the profile. Stages without a record
// report not_submitted.
func (s *VerificationService) Combined(ctx context.Context, userID string) (*model.VerificationRecord, error) {
	rec := &model.VerificationRecord{
		UserID:        userID,
		DocumentState: model.VerificationNotSubmitted,
		FaceState:     model.VerificationNotSubmitted,
	}

	if profile, err := s.store.Profiles.ByUserID(ctx, userID); err == nil {
		rec.Name = profile.Name
		rec.InstituteName = profile.InstituteName
		rec.Department = profile.Department
	} else if !errors.Is(err, repository.ErrProfileNotFound) {
		return nil, err
	}

	var feedback []string

	doc, err := s.store.Verifications.Document(ctx, userID)
	switch {
	case err == nil:
		rec.RollNo = doc.RollNo
		rec.RegNo = doc.RegNo
		rec.DocumentState = doc.Status
		rec.DocumentURL = s.fileService.URLByID(ctx, doc.DocumentFileID)
		submitted := doc.CreatedAt
		rec.SubmittedAt = &submitted
		if doc.Feedback != "" {
			feedback = append(feedback, doc.Feedback)
		}
	case !errors.Is(err, repository.ErrVerificationNotFound):
		return nil, err
	}

	face, err := s.store.Verifications.Face(ctx, userID)
	switch {
	case err == nil:
		rec.FaceState = face.Status
		rec.FacePhotoURL = s.fileService.URLByID(ctx, face.PhotoFileID)
		if rec.SubmittedAt == nil || face.CreatedAt.Before(*rec.SubmittedAt) {
			submitted := face.CreatedAt
			rec.SubmittedAt = &submitted
		}
		if face.Feedback != "" && !slices.Contains(feedback, face.Feedback) {
			feedback = append(feedback, face.Feedback)
		}
	case !errors.Is(err, repository.ErrVerificationNotFound):
		return nil, err
	}

	rec.Status = model.CombinedStatus(rec.DocumentState, rec.FaceState)
	rec.Feedback = strings.Join(feedback, "; ")
	return rec, nil
}

// Queue lists combined records having a stage in status.
func (s *VerificationService) Queue(ctx context.Context, status string) ([]*model.VerificationRecord, error) {
	ids, err := s.store.Verifications.UserIDsByStatus(ctx, status)
	if err != nil {
		return nil, err
	}

	out := make([]*model.VerificationRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Combined(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *VerificationService) Approve(ctx context.Context, userID, adminID string) error {
	err := s.decide(ctx, userID, model.VerificationApproved, "", &model.Notification{
		UserID:  userID,
		Type:    model.NotificationVerificationApproved,
		Title:   "Verification approved",
		Message: "Your identity verification was approved.",
	})
	if err != nil {
		return err
	}

	slog.Info("verification approved", "user_id", userID, "admin_id", adminID)
	return nil
}

func (s *VerificationService) Reject(ctx context.Context, userID, adminID, feedback string) error {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		feedback = model.DefaultRejectionFeedback
	}

	err := s.decide(ctx, userID, model.VerificationRejected, feedback, &model.Notification{
		UserID:  userID,
		Type:    model.NotificationVerificationRejected,
		Title:   "Verification rejected",
		Message: "Your identity verification was rejected: " + feedback,
	})
	if err != nil {
		return err
	}

	slog.Info("verification rejected", "user_id", userID, "admin_id", adminID)
	return nil
}

// decide sets every submitted stage to status and notifies the user, in one
// transaction.
func (s *VerificationService) decide(ctx context.Context, userID, status, feedback string, note *model.Notification) error {
	return s.store.InTx(ctx, func(ctx context.Context, r *repository.Repositories) error {
		updated := 0

		err := r.Verifications.SetDocumentStatus(ctx, userID, status, feedback)
		switch {
		case err == nil:
			updated++
		case !errors.Is(err, repository.ErrVerificationNotFound):
			return err
		}

		err = r.Verifications.SetFaceStatus(ctx, userID, status, feedback)
		switch {
		case err == nil:
			updated++
		case !errors.Is(err, repository.ErrVerificationNotFound):
			return err
		}

		if updated == 0 {
			return ErrNotSubmitted
		}

		return r.Notifications.Create(ctx, note)
	})
}
