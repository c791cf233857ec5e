package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

// NotificationRepo avisos in-app.
type NotificationRepo struct {
	q Querier
}

// NewNotificationRepository construye el repositorio.
func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

// CreateIfAbsent inserta el aviso; el índice único de deduplicación descarta repetidos.
func (r *NotificationRepo) CreateIfAbsent(ctx context.Context, n *entity.Notification) (bool, error) {
	b := psql.Insert("notifications").
		Columns("id", "recipient_id", "requester_id", "document_id", "message", "read", "created_at").
		Values(n.ID, n.RecipientID, n.RequesterID, n.DocumentID, n.Message, n.Read, n.CreatedAt).
		Suffix("ON CONFLICT DO NOTHING")
	rows, err := exec(ctx, r.q, "insert notification", b)
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// ListUnread no leídas, más recientes primero.
func (r *NotificationRepo) ListUnread(ctx context.Context, userID string, limit int) ([]*entity.Notification, error) {
	b := psql.Select("id", "recipient_id", "requester_id", "document_id", "message", "read", "created_at").
		From("notifications").
		Where(sq.Eq{"recipient_id": userID, "read": false}).
		OrderBy("created_at DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	var out []*entity.Notification
	err := query(ctx, r.q, "list unread", b, func(rows pgx.Rows) error {
		var n entity.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.RequesterID, &n.DocumentID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return err
		}
		out = append(out, &n)
		return nil
	})
	return out, err
}

// CountUnread total de no leídas.
func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	return count(ctx, r.q, "count unread",
		psql.Select("COUNT(*)").From("notifications").Where(sq.Eq{"recipient_id": userID, "read": false}))
}

// MarkRead marca una notificación del propio usuario.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	n, err := exec(ctx, r.q, "mark read", psql.Update("notifications").
		Set("read", true).
		Where(sq.Eq{"id": id, "recipient_id": userID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkAllRead marca todas; devuelve cuántas cambiaron.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	n, err := exec(ctx, r.q, "mark all read", psql.Update("notifications").
		Set("read", true).
		Where(sq.Eq{"recipient_id": userID, "read": false}))
	return int(n), err
}
