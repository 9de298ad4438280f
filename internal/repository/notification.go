package repository

import (
	"context"

	"github.com/boibazar/boibazar/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}

type notificationRepository struct {
	q sqlx.ExtContext
}

func NewNotificationRepository(q sqlx.ExtContext) NotificationRepository {
	return &notificationRepository{q: q}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now()
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.UserID, n.Type, n.Title, n.Message, n.IsRead, n.CreatedAt)
	return err
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	var out []*model.Notification
	err := sqlx.SelectContext(ctx, r.q, &out, `
		SELECT * FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead is scoped to the owner so one user cannot touch another's rows.
func (r *notificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	_, err := r.q.ExecContext(ctx, `UPDATE notifications SET is_read = $1 WHERE id = $2 AND user_id = $3`, true, id, userID)
	return err
}
