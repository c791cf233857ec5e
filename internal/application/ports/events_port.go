package ports

import (
	"context"
	"time"
)

// DocumentStatusChanged evento emitido en cada creación o transición de documento.
type DocumentStatusChanged struct {
	DocumentID  string    `json:"document_id"`
	Name        string    `json:"name"`
	Revision    int       `json:"revision"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	ActorID     string    `json:"actor_id"`
	RequesterID string    `json:"requester_id"`
	DrafterID   string    `json:"drafter_id,omitempty"`
	ApproverID  string    `json:"approver_id,omitempty"`
	At          time.Time `json:"at"`
}

// EventPublisher publica eventos de dominio.
type EventPublisher interface {
	PublishDocumentStatusChanged(ctx context.Context, ev DocumentStatusChanged) error
}

// Mailer envío de correo.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
