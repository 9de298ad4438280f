package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/boibazar/boibazar/internal/catalog"
	"github.com/boibazar/boibazar/internal/model"
	"github.com/boibazar/boibazar/internal/repository"
	"github.com/boibazar/boibazar/internal/validation"
)

type ProfileService struct {
	profileRepo      repository.ProfileRepository
	notificationRepo repository.NotificationRepository
	fileService      *FileService
	catalog          *catalog.Catalog
}

func NewProfileService(
	profileRepo repository.ProfileRepository,
	notificationRepo repository.NotificationRepository,
	fileService *FileService,
	catalog *catalog.Catalog,
) *ProfileService {
	return &ProfileService{
		profileRepo:      profileRepo,
		notificationRepo: notificationRepo,
		fileService:      fileService,
		catalog:          catalog,
	}
}

// ByUserID returns the profile with its avatar link filled in.
func (s *ProfileService) ByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profileRepo.ByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if avatar, err := s.fileService.Avatar(ctx, userID); err == nil {
		profile.AvatarURL = s.fileService.URL(ctx, avatar)
	}

	return profile, nil
}

type ProfileInput struct {
	Name          string
	RollNumber    string
	Semester      string
	Department    string
	InstituteName string
	Phone         string
}

// Save updates the profile of userID, creating it when the account has none
// yet (first google sign-in). Roll number and institute can only be set once.
func (s *ProfileService) Save(ctx context.Context, userID string, in ProfileInput) (*model.Profile, error) {
	profile, err := s.profileRepo.ByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrProfileNotFound) {
		return nil, err
	}

	create := profile == nil
	if create {
		profile = &model.Profile{UserID: userID}
	}

	profile.Name = strings.TrimSpace(in.Name)
	profile.Semester = in.Semester
	profile.Department = in.Department
	profile.Phone = strings.TrimSpace(in.Phone)
	if profile.RollNumber == "" {
		profile.RollNumber = strings.TrimSpace(in.RollNumber)
	}
	if profile.InstituteName == "" {
		profile.InstituteName = in.InstituteName
	}

	if err := s.validate(profile); err != nil {
		return nil, err
	}

	if create {
		err = s.profileRepo.Create(ctx, profile)
	} else {
		err = s.profileRepo.Update(ctx, profile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	return profile, nil
}

func (s *ProfileService) validate(p *model.Profile) error {
	if err := validation.ValidateName(p.Name); err != nil {
		return fieldError(err.Error())
	}
	if err := validation.ValidateRollNumber(p.RollNumber); err != nil {
		return fieldError(err.Error())
	}
	if err := validation.ValidatePhone(p.Phone); err != nil {
		return fieldError(err.Error())
	}
	if !s.catalog.HasSemester(p.Semester) {
		return fieldError("unknown semester")
	}
	if !s.catalog.HasDepartment(p.Department) {
		return fieldError("unknown department")
	}
	if !s.catalog.HasInstitute(p.InstituteName) {
		return fieldError("unknown institute")
	}
	return nil
}

// SameInstitute returns the target profile when viewer and target study at
// the same institute, ErrNotSameInstitute otherwise.
func (s *ProfileService) SameInstitute(ctx context.Context, viewerID, targetID string) (*model.Profile, error) {
	viewer, err := s.profileRepo.ByUserID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	target, err := s.ByUserID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if viewer.InstituteName == "" || viewer.InstituteName != target.InstituteName {
		return nil, ErrNotSameInstitute
	}

	return target, nil
}

func (s *ProfileService) Notifications(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.notificationRepo.ListByUser(ctx, userID, limit)
}

func (s *ProfileService) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	return s.notificationRepo.MarkRead(ctx, userID, notificationID)
}
