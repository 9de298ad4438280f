package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/boibazar/boibazar/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrTokenNotFound = errors.New("token not found")
)

type TokenRepository interface {
	Create(ctx context.Context, token *model.Token) error
	ByToken(ctx context.Context, token string) (*model.Token, error)
	ConsumeToken(ctx context.Context, token, tokenType string) (*model.Token, error)
	DeleteByUserAndType(ctx context.Context, userID, tokenType string) error
	CleanupExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

type tokenRepository struct {
	q sqlx.ExtContext
}

func NewTokenRepository(q sqlx.ExtContext) TokenRepository {
	return &tokenRepository{q: q}
}

func (r *tokenRepository) Create(ctx context.Context, token *model.Token) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = now()
	}

	query := `
		INSERT INTO tokens (id, user_id, type, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.Type,
		token.Token,
		token.ExpiresAt.UTC(),
		token.CreatedAt,
	)
	return err
}

// ByToken returns the token row regardless of its state, so callers can tell
// expired links from unknown ones.
func (r *tokenRepository) ByToken(ctx context.Context, token string) (*model.Token, error) {
	var t model.Token
	err := sqlx.GetContext(ctx, r.q, &t, `SELECT * FROM tokens WHERE token = $1`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ConsumeToken atomically marks an unused, unexpired token of tokenType as
// used and returns it. Of two concurrent calls only one gets the row.
func (r *tokenRepository) ConsumeToken(ctx context.Context, token, tokenType string) (*model.Token, error) {
	var t model.Token
	ts := now()

	query := `
		UPDATE tokens
		SET used_at = $1
		WHERE token = $2
		AND type = $3
		AND used_at IS NULL
		AND expires_at > $4
		RETURNING *
	`

	err := sqlx.GetContext(ctx, r.q, &t, query, ts, token, tokenType, ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *tokenRepository) DeleteByUserAndType(ctx context.Context, userID, tokenType string) error {
	query := `DELETE FROM tokens WHERE user_id = $1 AND type = $2 AND used_at IS NULL`
	_, err := r.q.ExecContext(ctx, query, userID, tokenType)
	return err
}

// CleanupExpired removes used and expired tokens older than olderThan.
// Tokens are kept otherwise as an audit trail.
func (r *tokenRepository) CleanupExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := now().Add(-olderThan)
	query := `
		DELETE FROM tokens
		WHERE (used_at IS NOT NULL AND used_at < $1)
		   OR (expires_at < $1)
	`
	result, err := r.q.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
