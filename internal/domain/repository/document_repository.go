package repository

import (
	"context"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

// DocumentRepository puerto de persistencia de revisiones de documentos y su auditoría.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	Update(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id string) (*entity.Document, error)
	// GetForUpdate bloquea la fila dentro de la transacción actual.
	GetForUpdate(ctx context.Context, id string) (*entity.Document, error)
	Delete(ctx context.Context, id string) error
	MaxRevision(ctx context.Context, codigo string) (int, error)
	// HasOpenRevision indica si alguna revisión del código no llegó a un estado terminal.
	HasOpenRevision(ctx context.Context, codigo string) (bool, error)
	// DeactivateApproved inactiva revisiones aprobadas del código salvo exceptID.
	DeactivateApproved(ctx context.Context, codigo, exceptID string) error
	ListLatestApproved(ctx context.Context, f entity.DocumentFilter) ([]*entity.Document, int, error)
	List(ctx context.Context, f entity.DocumentFilter) ([]*entity.Document, int, error)
	ListPendingFor(ctx context.Context, userID string, canAnalyze bool) ([]*entity.Document, error)
	ListRevisions(ctx context.Context, codigo string) ([]*entity.Document, error)
	SearchApprovedText(ctx context.Context, terms []string, limit int) ([]*entity.Document, error)

	AddNameChange(ctx context.Context, c *entity.DocumentNameChange) error
	ListNameChanges(ctx context.Context, documentID string) ([]*entity.DocumentNameChange, error)
	AddAccess(ctx context.Context, a *entity.DocumentAccess) error
	ListAccesses(ctx context.Context, documentID string, limit int) ([]*entity.DocumentAccess, error)
	AddDeleted(ctx context.Context, d *entity.DeletedDocument) error
}
