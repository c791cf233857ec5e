package postgres

import (
	"context"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
)

var _ repository.ChatRepository = (*ChatRepo)(nil)

// ChatRepo sesiones del asistente, mensajes y log de costos.
type ChatRepo struct {
	q Querier
}

// NewChatRepository construye el repositorio.
func NewChatRepository(q Querier) *ChatRepo {
	return &ChatRepo{q: q}
}

// CreateChat inserta la sesión.
func (r *ChatRepo) CreateChat(ctx context.Context, c *entity.Chat) error {
	_, err := exec(ctx, r.q, "insert chat", psql.Insert("chats").
		Columns("id", "user_id", "title", "model", "created_at", "updated_at").
		Values(c.ID, c.UserID, c.Title, c.Model, c.CreatedAt, c.UpdatedAt))
	return err
}

// GetChat sesión por id.
func (r *ChatRepo) GetChat(ctx context.Context, id string) (*entity.Chat, error) {
	var c entity.Chat
	found, err := queryRow(ctx, r.q, "get chat",
		psql.Select("id", "user_id", "title", "model", "created_at", "updated_at").From("chats").Where(sq.Eq{"id": id}),
		&c.ID, &c.UserID, &c.Title, &c.Model, &c.CreatedAt, &c.UpdatedAt)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

// ListChats sesiones del usuario, la más reciente primero.
func (r *ChatRepo) ListChats(ctx context.Context, userID string) ([]*entity.Chat, error) {
	b := psql.Select("id", "user_id", "title", "model", "created_at", "updated_at").
		From("chats").Where(sq.Eq{"user_id": userID}).OrderBy("updated_at DESC")
	var out []*entity.Chat
	err := query(ctx, r.q, "list chats", b, func(rows pgx.Rows) error {
		var c entity.Chat
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.Model, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return err
		}
		out = append(out, &c)
		return nil
	})
	return out, err
}

// UpdateChat título, modelo y updated_at.
func (r *ChatRepo) UpdateChat(ctx context.Context, c *entity.Chat) error {
	n, err := exec(ctx, r.q, "update chat", psql.Update("chats").
		Set("title", c.Title).Set("model", c.Model).Set("updated_at", c.UpdatedAt).
		Where(sq.Eq{"id": c.ID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteChat elimina la sesión y sus mensajes; el log de uso queda sin chat.
func (r *ChatRepo) DeleteChat(ctx context.Context, id string) error {
	_, err := exec(ctx, r.q, "delete chat", psql.Delete("chats").Where(sq.Eq{"id": id}))
	return err
}

// AddMessage inserta el mensaje y sus anexos.
func (r *ChatRepo) AddMessage(ctx context.Context, m *entity.ChatMessage) error {
	if _, err := exec(ctx, r.q, "insert chat message", psql.Insert("chat_messages").
		Columns("id", "chat_id", "sender", "text", "created_at").
		Values(m.ID, m.ChatID, m.Sender, m.Text, m.CreatedAt)); err != nil {
		return err
	}
	if len(m.Attachments) == 0 {
		return nil
	}
	b := psql.Insert("chat_attachments").Columns("id", "message_id", "file_name", "extracted_text")
	for _, a := range m.Attachments {
		b = b.Values(a.ID, m.ID, a.FileName, a.ExtractedText)
	}
	_, err := exec(ctx, r.q, "insert chat attachments", b)
	return err
}

// ListMessages últimos limit mensajes (0 = todos) en orden cronológico, con anexos.
func (r *ChatRepo) ListMessages(ctx context.Context, chatID string, limit int) ([]*entity.ChatMessage, error) {
	b := psql.Select("id", "chat_id", "sender", "text", "created_at").
		From("chat_messages").Where(sq.Eq{"chat_id": chatID}).OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	var out []*entity.ChatMessage
	byID := map[string]*entity.ChatMessage{}
	err := query(ctx, r.q, "list chat messages", b, func(rows pgx.Rows) error {
		var m entity.ChatMessage
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Sender, &m.Text, &m.CreatedAt); err != nil {
			return err
		}
		out = append(out, &m)
		byID[m.ID] = &m
		return nil
	})
	if err != nil || len(out) == 0 {
		return out, err
	}
	slices.Reverse(out)

	ids := make([]string, 0, len(out))
	for _, m := range out {
		ids = append(ids, m.ID)
	}
	ab := psql.Select("id", "message_id", "file_name", "extracted_text").
		From("chat_attachments").Where(sq.Eq{"message_id": ids}).OrderBy("file_name")
	err = query(ctx, r.q, "list chat attachments", ab, func(rows pgx.Rows) error {
		var a entity.ChatAttachment
		if err := rows.Scan(&a.ID, &a.MessageID, &a.FileName, &a.ExtractedText); err != nil {
			return err
		}
		if m := byID[a.MessageID]; m != nil {
			m.Attachments = append(m.Attachments, a)
		}
		return nil
	})
	return out, err
}

// LogUsage registra tokens y costo de una llamada.
func (r *ChatRepo) LogUsage(ctx context.Context, l *entity.APIUsageLog) error {
	_, err := exec(ctx, r.q, "insert usage log", psql.Insert("api_usage_logs").
		Columns("id", "user_id", "chat_id", "model", "input_tokens", "output_tokens", "image_count", "cost_usd", "cost_brl", "created_at").
		Values(l.ID, l.UserID, l.ChatID, l.Model, l.InputTokens, l.OutputTokens, l.ImageCount, l.CostUSD, l.CostBRL, l.CreatedAt))
	return err
}

// UsageSummary agregado por usuario y modelo en [from, to). userID vacío = todos.
func (r *ChatRepo) UsageSummary(ctx context.Context, userID string, from, to time.Time) ([]*entity.APIUsageSummary, error) {
	b := psql.Select("l.user_id", "u.username", "l.model", "COUNT(*)",
		"COALESCE(SUM(l.input_tokens), 0)", "COALESCE(SUM(l.output_tokens), 0)",
		"COALESCE(SUM(l.cost_usd), 0)", "COALESCE(SUM(l.cost_brl), 0)").
		From("api_usage_logs l").Join("users u ON u.id = l.user_id").
		Where(sq.GtOrEq{"l.created_at": from}).
		Where(sq.Lt{"l.created_at": to}).
		GroupBy("l.user_id", "u.username", "l.model").
		OrderBy("u.username", "l.model")
	if userID != "" {
		b = b.Where(sq.Eq{"l.user_id": userID})
	}
	var out []*entity.APIUsageSummary
	err := query(ctx, r.q, "usage summary", b, func(rows pgx.Rows) error {
		var s entity.APIUsageSummary
		if err := rows.Scan(&s.UserID, &s.Username, &s.Model, &s.Calls, &s.InputTokens, &s.OutputTokens,
			&s.CostUSD, &s.CostBRL); err != nil {
			return err
		}
		out = append(out, &s)
		return nil
	})
	return out, err
}
