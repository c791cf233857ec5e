package repository

import (
	"context"
	"time"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

// ChatRepository puerto de persistencia del asistente de IA.
type ChatRepository interface {
	CreateChat(ctx context.Context, c *entity.Chat) error
	GetChat(ctx context.Context, id string) (*entity.Chat, error)
	ListChats(ctx context.Context, userID string) ([]*entity.Chat, error)
	UpdateChat(ctx context.Context, c *entity.Chat) error
	DeleteChat(ctx context.Context, id string) error

	AddMessage(ctx context.Context, m *entity.ChatMessage) error
	ListMessages(ctx context.Context, chatID string, limit int) ([]*entity.ChatMessage, error)

	LogUsage(ctx context.Context, l *entity.APIUsageLog) error
	// UsageSummary agrega por usuario y modelo; userID vacío = todos.
	UsageSummary(ctx context.Context, userID string, from, to time.Time) ([]*entity.APIUsageSummary, error)
}
