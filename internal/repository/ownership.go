package repository

import (
	"context"
	"fmt"

	"github.com/boibazar/boibazar/internal/model"
	"github.com/jmoiron/sqlx"
)

// Tables whose rows follow their owner to the surviving account on merge.
var ownedTables = []string{"books", "notifications", "user_books", "book_requests"}

// Tables with one row per user. Their row moves only if the new account has none.
var singletonTables = []string{"verification_data", "face_verification", "user_ban_status", "admin_users"}

type OwnershipRepository interface {
	Transfer(ctx context.Context, oldID, newID string) (map[string]int64, error)
}

type ownershipRepository struct {
	q sqlx.ExtContext
}

func NewOwnershipRepository(q sqlx.ExtContext) OwnershipRepository {
	return &ownershipRepository{q: q}
}

// Transfer reassigns everything oldID owns to newID and returns the rows
// moved per table. Run it inside a transaction.
func (r *ownershipRepository) Transfer(ctx context.Context, oldID, newID string) (map[string]int64, error) {
	moved := make(map[string]int64)

	for _, table := range ownedTables {
		n, err := r.exec(ctx, fmt.Sprintf(`UPDATE %s SET user_id = $1 WHERE user_id = $2`, table), newID, oldID)
		if err != nil {
			return nil, fmt.Errorf("transfer %s: %w", table, err)
		}
		moved[table] = n
	}

	n, err := r.exec(ctx, `UPDATE files SET user_id = $1 WHERE user_id = $2`, newID, oldID)
	if err != nil {
		return nil, fmt.Errorf("transfer files: %w", err)
	}
	moved["files"] = n

	if _, err := r.exec(ctx, `UPDATE files SET owner_id = $1 WHERE owner_type = $2 AND owner_id = $3`, newID, model.FileOwnerUser, oldID); err != nil {
		return nil, fmt.Errorf("transfer file owners: %w", err)
	}

	for _, table := range singletonTables {
		query := fmt.Sprintf(`
			UPDATE %[1]s SET user_id = $1
			WHERE user_id = $2
			AND NOT EXISTS (SELECT 1 FROM %[1]s WHERE user_id = $1)
		`, table)
		n, err := r.exec(ctx, query, newID, oldID)
		if err != nil {
			return nil, fmt.Errorf("transfer %s: %w", table, err)
		}
		moved[table] = n
	}

	return moved, nil
}

func (r *ownershipRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
