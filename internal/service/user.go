package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/boibazar/boibazar/internal/model"
	"github.com/boibazar/boibazar/internal/repository"
	"github.com/boibazar/boibazar/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepository repository.UserRepository
	fileService    *FileService
}

func NewUserService(userRepository repository.UserRepository, fileService *FileService) *UserService {
	return &UserService{
		userRepository: userRepository,
		fileService:    fileService,
	}
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if avatar, err := s.fileService.Avatar(ctx, id); err == nil {
		user.AvatarURL = s.fileService.URL(ctx, avatar)
	}

	return user, nil
}

func (s *UserService) ByEmail(ctx context.Context, email, provider string) (*model.User, error) {
	return s.userRepository.ByEmail(ctx, normalizeEmail(email), provider)
}

func (s *UserService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return fieldError("accounts signed in with Google have no password")
	}

	if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(currentPassword)) != nil {
		return ErrWrongPassword
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return fieldError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	hash := string(hashed)
	user.PasswordHash = &hash
	if err := s.userRepository.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password changed", "user_id", userID)
	return nil
}

func (s *UserService) Overview(ctx context.Context, limit, offset int) ([]*model.UserOverview, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.userRepository.Overview(ctx, limit, offset)
}
