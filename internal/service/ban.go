package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/boibazar/boibazar/internal/model"
	"github.com/boibazar/boibazar/internal/repository"
)

type BanService struct {
	store *repository.Store
	now   func() time.Time
}

func NewBanService(store *repository.Store) *BanService {
	return &BanService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Status returns the ban state of userID. Accounts without a record are not
// banned. A timed ban that has run out is lifted as part of the read.
func (s *BanService) Status(ctx context.Context, userID string) (*model.BanStatus, error) {
	status, err := s.store.Bans.ByUserID(ctx, userID)
	if errors.Is(err, repository.ErrBanNotFound) {
		return &model.BanStatus{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ban status: %w", err)
	}

	if status.IsExpired(s.now()) {
		err = s.lift(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to clear expired ban: %w", err)
		}
		status.IsBanned = false
		slog.Info("expired ban cleared", "user_id", userID)
	}

	return status, nil
}

// Ban blocks userID. A nil expiresAt bans permanently.
func (s *BanService) Ban(ctx context.Context, userID, reason string, expiresAt *time.Time, bannedBy string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fieldError("ban reason is required")
	}

	now := s.now()
	if expiresAt != nil {
		if !expiresAt.After(now) {
			return fieldError("ban expiry must be in the future")
		}
		utc := expiresAt.UTC()
		expiresAt = &utc
	}

	_, err := s.store.Users.ByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	err = s.store.InTx(ctx, func(ctx context.Context, r *repository.Repositories) error {
		err := r.Bans.Upsert(ctx, &model.BanStatus{
			UserID:       userID,
			IsBanned:     true,
			BannedAt:     &now,
			BanReason:    reason,
			BanExpiresAt: expiresAt,
			BannedBy:     bannedBy,
		})
		if err != nil {
			return err
		}
		return r.Profiles.SetBanned(ctx, userID, true)
	})
	if err != nil {
		return fmt.Errorf("failed to ban user: %w", err)
	}

	slog.Info("user banned", "user_id", userID, "banned_by", bannedBy, "permanent", expiresAt == nil)
	return nil
}

func (s *BanService) Unban(ctx context.Context, userID string) error {
	err := s.lift(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to unban user: %w", err)
	}
	slog.Info("user unbanned", "user_id", userID)
	return nil
}

func (s *BanService) Banned(ctx context.Context) ([]*model.BanStatus, error) {
	return s.store.Bans.ListBanned(ctx)
}

func (s *BanService) lift(ctx context.Context, userID string) error {
	return s.store.InTx(ctx, func(ctx context.Context, r *repository.Repositories) error {
		if err := r.Bans.Clear(ctx, userID); err != nil {
			return err
		}
		return r.Profiles.SetBanned(ctx, userID, false)
	})
}
