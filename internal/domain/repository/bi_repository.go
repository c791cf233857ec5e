package repository

import (
	"context"
	"time"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

// BIRepository puerto de persistencia de relatórios BI, acessos e visões salvas.
type BIRepository interface {
	Create(ctx context.Context, r *entity.BIReport) error
	Update(ctx context.Context, r *entity.BIReport) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.BIReport, error)
	List(ctx context.Context) ([]*entity.BIReport, error)
	ListForUser(ctx context.Context, userID string, groupIDs []string) ([]*entity.BIReport, error)
	SetLastUpdated(ctx context.Context, id string, at time.Time) error

	LogAccess(ctx context.Context, a *entity.BIAccess) error
	ListAccesses(ctx context.Context, reportID string, limit int) ([]*entity.BIAccess, error)

	CreateView(ctx context.Context, v *entity.BISavedView) error
	GetView(ctx context.Context, id string) (*entity.BISavedView, error)
	GetViewByToken(ctx context.Context, token string) (*entity.BISavedView, error)
	ListViews(ctx context.Context, reportID, ownerID string) ([]*entity.BISavedView, error)
	DeleteView(ctx context.Context, id string) error
	SetDefaultView(ctx context.Context, reportID, ownerID, viewID string) error
	SetShareToken(ctx context.Context, viewID string, token *string) error
}
