package repository

import (
	"context"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

// FormRepository puerto de persistencia de formularios, campos y respuestas.
type FormRepository interface {
	Create(ctx context.Context, f *entity.Form) error
	Update(ctx context.Context, f *entity.Form) error
	Delete(ctx context.Context, id string) error
	// GetByID devuelve el formulario con sus campos ordenados y el conteo de respuestas.
	GetByID(ctx context.Context, id string) (*entity.Form, error)
	ListVisibleTo(ctx context.Context, userID string) ([]*entity.Form, error)
	ListHomeCandidates(ctx context.Context) ([]*entity.Form, error)
	BumpVersion(ctx context.Context, formID string) (int, error)

	AddField(ctx context.Context, field *entity.FormField) error
	UpdateField(ctx context.Context, field *entity.FormField) error
	DeleteField(ctx context.Context, formID, fieldID string) error
	ReorderFields(ctx context.Context, formID string, orderedIDs []string) error

	SetCollaborators(ctx context.Context, formID string, collabs []entity.FormCollaborator) error
	GetCollaborator(ctx context.Context, formID, userID string) (*entity.FormCollaborator, error)

	CreateResponse(ctx context.Context, r *entity.FormResponse) error
	CountResponses(ctx context.Context, formID string) (int, error)
	ListResponses(ctx context.Context, formID string, limit, offset int) ([]*entity.FormResponse, int, error)

	GetUserState(ctx context.Context, formID, userID string) (*entity.FormUserState, error)
	UpsertUserState(ctx context.Context, s *entity.FormUserState) error
}
