package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/boibazar/boibazar/internal/model"
	"github.com/jmoiron/sqlx"
)

var ErrMergeTicketNotFound = errors.New("merge ticket not found")

type MergeTicketRepository interface {
	Create(ctx context.Context, ticket *model.MergeTicket) error
	ByID(ctx context.Context, id string) (*model.MergeTicket, error)
	Consume(ctx context.Context, id string) (*model.MergeTicket, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type mergeTicketRepository struct {
	q sqlx.ExtContext
}

func NewMergeTicketRepository(q sqlx.ExtContext) MergeTicketRepository {
	return &mergeTicketRepository{q: q}
}

func (r *mergeTicketRepository) Create(ctx context.Context, ticket *model.MergeTicket) error {
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now()
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO merge_tickets (id, old_account_id, old_email, snapshot, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, ticket.ID, ticket.OldAccountID, ticket.OldEmail, ticket.Snapshot, ticket.ExpiresAt.UTC(), ticket.CreatedAt)
	return err
}

func (r *mergeTicketRepository) ByID(ctx context.Context, id string) (*model.MergeTicket, error) {
	var t model.MergeTicket
	err := sqlx.GetContext(ctx, r.q, &t, `SELECT * FROM merge_tickets WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMergeTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Consume marks a live ticket used. A used or expired ticket yields
// ErrMergeTicketNotFound, so a ticket completes at most one merge.
func (r *mergeTicketRepository) Consume(ctx context.Context, id string) (*model.MergeTicket, error) {
	var t model.MergeTicket
	ts := now()

	err := sqlx.GetContext(ctx, r.q, &t, `
		UPDATE merge_tickets
		SET used_at = $1
		WHERE id = $2
		AND used_at IS NULL
		AND expires_at > $3
		RETURNING *
	`, ts, id, ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMergeTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *mergeTicketRepository) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM merge_tickets WHERE used_at IS NOT NULL OR expires_at < $1`, now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
