package repository

import (
	"context"
	"strings"
	"time"

	"github.com/boibazar/boibazar/internal/db"
	"github.com/jmoiron/sqlx"
)

// Repositories bundles every repository bound to one query handle, either the
// pool or an open transaction.
type Repositories struct {
	Users         UserRepository
	Profiles      ProfileRepository
	Tokens        TokenRepository
	MergeTickets  MergeTicketRepository
	Bans          BanRepository
	Admins        AdminRepository
	Files         FileRepository
	Notifications NotificationRepository
	Verifications VerificationRepository
	Ownership     OwnershipRepository
}

func New(q sqlx.ExtContext) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(q),
		Profiles:      NewProfileRepository(q),
		Tokens:        NewTokenRepository(q),
		MergeTickets:  NewMergeTicketRepository(q),
		Bans:          NewBanRepository(q),
		Admins:        NewAdminRepository(q),
		Files:         NewFileRepository(q),
		Notifications: NewNotificationRepository(q),
		Verifications: NewVerificationRepository(q),
		Ownership:     NewOwnershipRepository(q),
	}
}

// Store is the pool-bound set of repositories plus transactions.
type Store struct {
	*Repositories
	db *sqlx.DB
}

func NewStore(database *sqlx.DB) *Store {
	return &Store{
		Repositories: New(database),
		db:           database,
	}
}

// InTx runs fn with repositories bound to a single transaction.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, r *Repositories) error) error {
	return db.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sqlx.Tx) error {
		return fn(ctx, New(tx))
	})
}

// isUniqueViolation matches unique constraint errors from SQLite and PostgreSQL.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value")
}

func now() time.Time {
	return time.Now().UTC()
}
