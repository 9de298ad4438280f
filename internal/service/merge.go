package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/boibazar/boibazar/internal/model"
	"github.com/boibazar/boibazar/internal/repository"
	"github.com/google/uuid"
)

const MergeTicketCookieName = "merge_ticket"

// MergeService folds a password account into the google account with the
// same email. Begin re-authenticates the old account and records a ticket;
// Complete runs after the google sign-in and moves everything in one
// transaction.
type MergeService struct {
	store        *repository.Store
	authService  *AuthService
	adminService *AdminService
	emailService *EmailService
	ticketExpiry time.Duration
	now          func() time.Time
}

func NewMergeService(store *repository.Store, authService *AuthService, adminService *AdminService, emailService *EmailService, ticketExpiry time.Duration) *MergeService {
	return &MergeService{
		store:        store,
		authService:  authService,
		adminService: adminService,
		emailService: emailService,
		ticketExpiry: ticketExpiry,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Begin checks the old account's password and snapshots its profile into a
// new ticket. Nothing is created when the old account has no profile.
func (s *MergeService) Begin(ctx context.Context, oldEmail, oldPassword string) (*model.MergeTicket, error) {
	oldEmail = normalizeEmail(oldEmail)

	user, err := s.store.Users.ByEmail(ctx, oldEmail, model.ProviderPassword)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.HasPassword() || s.authService.ComparePassword(oldPassword, *user.PasswordHash) != nil {
		return nil, ErrInvalidCredentials
	}
	if user.IsMerged() {
		return nil, ErrAccountMerged
	}

	profile, err := s.store.Profiles.ByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrMergeSourceMissing
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	snapshot, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot profile: %w", err)
	}

	now := s.now()
	ticket := &model.MergeTicket{
		ID:           uuid.New().String(),
		OldAccountID: user.ID,
		OldEmail:     user.Email,
		Snapshot:     string(snapshot),
		ExpiresAt:    now.Add(s.ticketExpiry),
		CreatedAt:    now,
	}
	if err := s.store.MergeTickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create merge ticket: %w", err)
	}

	slog.Info("account merge started", "old_user_id", user.ID, "ticket_id", ticket.ID)
	return ticket, nil
}

type MergeResult struct {
	User  *model.User
	Moved map[string]int64
}

// Complete finishes the merge for the google account signed in as
// federatedEmail. On an email mismatch nothing is written and the ticket
// stays usable until it expires.
func (s *MergeService) Complete(ctx context.Context, ticketID, federatedEmail string) (*MergeResult, error) {
	if ticketID == "" {
		return nil, ErrMergeTicketInvalid
	}

	ticket, err := s.store.MergeTickets.ByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrMergeTicketNotFound) {
			return nil, ErrMergeTicketInvalid
		}
		return nil, fmt.Errorf("failed to get merge ticket: %w", err)
	}
	if !ticket.IsValid(s.now()) {
		return nil, ErrMergeTicketInvalid
	}

	if !strings.EqualFold(strings.TrimSpace(ticket.OldEmail), strings.TrimSpace(federatedEmail)) {
		return nil, &EmailMismatchError{OldEmail: ticket.OldEmail, NewEmail: federatedEmail}
	}

	var snapshot model.Profile
	if err := json.Unmarshal([]byte(ticket.Snapshot), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to read merge snapshot: %w", err)
	}

	user, err := s.authService.AuthenticateOAuth(ctx, federatedEmail)
	if err != nil {
		return nil, err
	}

	oldID := ticket.OldAccountID
	var moved map[string]int64

	err = s.store.InTx(ctx, func(ctx context.Context, r *repository.Repositories) error {
		if _, err := r.MergeTickets.Consume(ctx, ticket.ID); err != nil {
			if errors.Is(err, repository.ErrMergeTicketNotFound) {
				return ErrMergeTicketInvalid
			}
			return err
		}

		// The live profile wins over the snapshot when it still exists.
		source := &snapshot
		if current, err := r.Profiles.ByUserID(ctx, oldID); err == nil {
			source = current
		} else if !errors.Is(err, repository.ErrProfileNotFound) {
			return err
		}

		target, err := r.Profiles.ByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, repository.ErrProfileNotFound) {
			return err
		}

		if err := r.Profiles.Upsert(ctx, source.MergedInto(target, user.ID, s.now())); err != nil {
			return fmt.Errorf("upsert profile: %w", err)
		}

		if err := s.carryBan(ctx, r, oldID, user.ID); err != nil {
			return fmt.Errorf("carry ban: %w", err)
		}

		if err := carryVerification(ctx, r, oldID, user.ID); err != nil {
			return fmt.Errorf("carry verification: %w", err)
		}

		moved, err = r.Ownership.Transfer(ctx, oldID, user.ID)
		if err != nil {
			return err
		}

		if err := r.Profiles.Delete(ctx, oldID); err != nil {
			return fmt.Errorf("delete old profile: %w", err)
		}

		if err := r.Users.MarkMerged(ctx, oldID, user.ID); err != nil {
			return fmt.Errorf("mark merged: %w", err)
		}

		return r.Notifications.Create(ctx, &model.Notification{
			UserID:  user.ID,
			Type:    model.NotificationAccountMerged,
			Title:   "Accounts linked",
			Message: "Your password account was merged into this Google sign-in.",
		})
	})
	if err != nil {
		if errors.Is(err, ErrMergeTicketInvalid) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to merge accounts: %w", err)
	}

	s.adminService.Invalidate(ctx, oldID, user.ID)

	slog.Info("accounts merged", "old_user_id", oldID, "new_user_id", user.ID, "moved", moved)

	if err := s.emailService.SendAccountMergedEmail(ctx, user.Email, snapshot.Name); err != nil {
		slog.Warn("failed to send merge email", "user_id", user.ID, "error", err)
	}

	return &MergeResult{User: user, Moved: moved}, nil
}

// carryBan keeps the stricter of the two ban rows on newID. Transfer never
// overwrites an existing singleton row, so an active old ban has to be
// written onto newID here.
func (s *MergeService) carryBan(ctx context.Context, r *repository.Repositories, oldID, newID string) error {
	now := s.now()

	old, err := r.Bans.ByUserID(ctx, oldID)
	if errors.Is(err, repository.ErrBanNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !old.Active(now) {
		return nil
	}

	current, err := r.Bans.ByUserID(ctx, newID)
	if err != nil && !errors.Is(err, repository.ErrBanNotFound) {
		return err
	}
	if current != nil && current.Active(now) && !old.Outlasts(current) {
		return r.Profiles.SetBanned(ctx, newID, true)
	}

	carried := *old
	carried.UserID = newID
	if err := r.Bans.Upsert(ctx, &carried); err != nil {
		return err
	}
	return r.Profiles.SetBanned(ctx, newID, true)
}

// carryVerification drops newID's unapproved stage records when the old
// account already passed that stage, so Transfer moves the approved ones.
func carryVerification(ctx context.Context, r *repository.Repositories, oldID, newID string) error {
	if old, err := r.Verifications.Document(ctx, oldID); err == nil && old.Status == model.VerificationApproved {
		current, err := r.Verifications.Document(ctx, newID)
		switch {
		case err == nil && current.Status != model.VerificationApproved:
			if err := r.Verifications.DeleteDocument(ctx, newID); err != nil {
				return err
			}
		case err != nil && !errors.Is(err, repository.ErrVerificationNotFound):
			return err
		}
	} else if err != nil && !errors.Is(err, repository.ErrVerificationNotFound) {
		return err
	}

	if old, err := r.Verifications.Face(ctx, oldID); err == nil && old.Status == model.VerificationApproved {
		current, err := r.Verifications.Face(ctx, newID)
		switch {
		case err == nil && current.Status != model.VerificationApproved:
			if err := r.Verifications.DeleteFace(ctx, newID); err != nil {
				return err
			}
		case err != nil && !errors.Is(err, repository.ErrVerificationNotFound):
			return err
		}
	} else if err != nil && !errors.Is(err, repository.ErrVerificationNotFound) {
		return err
	}

	return nil
}
