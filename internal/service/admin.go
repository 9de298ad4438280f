package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/boibazar/boibazar/internal/cache"
	"github.com/boibazar/boibazar/internal/repository"
)

type AdminService struct {
	admins    repository.AdminRepository
	cache     cache.Store
	ttl       time.Duration
	devBypass bool
}

// NewAdminService builds the admin check. devBypass must only be true in
// development; every signed-in account then counts as an admin.
func NewAdminService(admins repository.AdminRepository, cache cache.Store, ttl time.Duration, devBypass bool) *AdminService {
	return &AdminService{
		admins:    admins,
		cache:     cache,
		ttl:       ttl,
		devBypass: devBypass,
	}
}

func adminCacheKey(userID string) string {
	return "authz:admin:" + userID
}

// IsAdmin checks the development bypass, then the authz cache, then the
// admin table. Table results are cached for the configured TTL.
func (s *AdminService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	if s.devBypass {
		slog.Warn("admin check bypassed (development)", "user_id", userID)
		return true, nil
	}

	key := adminCacheKey(userID)
	cached, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		return cached == "1", nil
	case !errors.Is(err, cache.ErrMiss):
		slog.Warn("authz cache read failed", "user_id", userID, "error", err)
	}

	ok, err := s.admins.IsAdmin(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check admin: %w", err)
	}

	value := "0"
	if ok {
		value = "1"
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		slog.Warn("authz cache write failed", "user_id", userID, "error", err)
	}

	return ok, nil
}

// Invalidate drops cached admin results for the given accounts.
func (s *AdminService) Invalidate(ctx context.Context, userIDs ...string) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id != "" {
			keys = append(keys, adminCacheKey(id))
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		slog.Warn("authz cache invalidation failed", "user_ids", userIDs, "error", err)
	}
}

func (s *AdminService) Grant(ctx context.Context, userID, grantedBy string) error {
	if err := s.admins.Grant(ctx, userID, grantedBy); err != nil {
		return fmt.Errorf("failed to grant admin: %w", err)
	}
	s.Invalidate(ctx, userID)
	slog.Info("admin granted", "user_id", userID, "granted_by", grantedBy)
	return nil
}

func (s *AdminService) Revoke(ctx context.Context, userID string) error {
	if err := s.admins.Revoke(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke admin: %w", err)
	}
	s.Invalidate(ctx, userID)
	slog.Info("admin revoked", "user_id", userID)
	return nil
}
