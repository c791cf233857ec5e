package repository

import (
	"context"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

// NotificationRepository puerto de persistencia de notificaciones.
type NotificationRepository interface {
	// CreateIfAbsent inserta salvo que ya exista (destinatario, documento, mensaje); devuelve si creó.
	CreateIfAbsent(ctx context.Context, n *entity.Notification) (bool, error)
	ListUnread(ctx context.Context, userID string, limit int) ([]*entity.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}
