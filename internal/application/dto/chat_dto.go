package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateChatRequest nova conversa.
type CreateChatRequest struct {
	Title string `json:"title" validate:"max=200"`
	Model string `json:"model"`
}

// RenameChatRequest renombrado.
type RenameChatRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// SendMessageRequest mensaje del usuario y adjuntos.
type SendMessageRequest struct {
	Text        string   `form:"text"`
	Model       string   `form:"model"`
	Attachments []Upload `form:"-"`
}

// ChatResponse conversa.
type ChatResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessageResponse mensaje.
type ChatMessageResponse struct {
	ID          string    `json:"id"`
	Sender      string    `json:"sender"`
	Text        string    `json:"text"`
	Attachments []string  `json:"attachments,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SendMessageResponse mensaje del usuario, respuesta de la IA y costo.
type SendMessageResponse struct {
	UserMessage ChatMessageResponse `json:"user_message"`
	Reply       ChatMessageResponse `json:"reply"`
	Model       string              `json:"model"`
	CostUSD     decimal.Decimal     `json:"cost_usd"`
	CostBRL     decimal.Decimal     `json:"cost_brl"`
}

// UsageRequest período del monitor de custos.
type UsageRequest struct {
	From time.Time `query:"from"`
	To   time.Time `query:"to"`
	All  bool      `query:"all"`
}

// UsageRow agregado por usuario y modelo.
type UsageRow struct {
	UserID       string          `json:"user_id"`
	Username     string          `json:"username"`
	Model        string          `json:"model"`
	Calls        int             `json:"calls"`
	InputTokens  int64           `json:"input_tokens"`
	OutputTokens int64           `json:"output_tokens"`
	CostUSD      decimal.Decimal `json:"cost_usd"`
	CostBRL      decimal.Decimal `json:"cost_brl"`
}

// UsageResponse monitor de custos.
type UsageResponse struct {
	Rows     []UsageRow          `json:"rows"`
	PerModel map[string]UsageRow `json:"per_model"`
	TotalUSD decimal.Decimal     `json:"total_usd"`
	TotalBRL decimal.Decimal     `json:"total_brl"`
}
