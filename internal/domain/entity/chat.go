package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Remetentes de mensagem.
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// Chat sessão de conversa com o assistente.
type Chat struct {
	ID        string
	UserID    string
	Title     string
	Model     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatMessage mensagem de uma sessão.
type ChatMessage struct {
	ID          string
	ChatID      string
	Sender      string
	Text        string
	CreatedAt   time.Time
	Attachments []ChatAttachment
}

// ChatAttachment arquivo anexado e o texto extraído dele.
type ChatAttachment struct {
	ID            string
	MessageID     string
	FileName      string
	ExtractedText string
}

// APIUsageLog custo estimado de uma chamada ao modelo.
type APIUsageLog struct {
	ID           string
	UserID       string
	ChatID       *string
	Model        string
	InputTokens  int
	OutputTokens int
	ImageCount   int
	CostUSD      decimal.Decimal
	CostBRL      decimal.Decimal
	CreatedAt    time.Time
}

// APIUsageSummary agregado por modelo/usuário.
type APIUsageSummary struct {
	UserID       string
	Username     string
	Model        string
	Calls        int
	InputTokens  int64
	OutputTokens int64
	CostUSD      decimal.Decimal
	CostBRL      decimal.Decimal
}
