package ports

import "context"

// LLMMessage turno del historial enviado al modelo.
type LLMMessage struct {
	Role string // user | model
	Text string
}

// LLMImage imagen adjunta al prompt.
type LLMImage struct {
	MIMEType string
	Data     []byte
}

// LLMRequest petición de chat al proveedor.
type LLMRequest struct {
	Model   string
	System  string
	History []LLMMessage
	Prompt  string
	Images  []LLMImage
}

// LLMResult respuesta con el uso reportado por el proveedor.
type LLMResult struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// LLMService define el puerto de salida para los servicios de inteligencia artificial.
// Cualquier adaptador (Gemini, Anthropic, mock) debe implementar esta interfaz.
// El contexto debe llevar un timeout para evitar bloqueos en llamadas externas.
type LLMService interface {
	Chat(ctx context.Context, req LLMRequest) (*LLMResult, error)
}
