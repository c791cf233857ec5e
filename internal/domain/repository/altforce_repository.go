package repository

import (
	"context"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

// AltForceRepository tablas espejo de la API AltForce. Los Upsert devuelven created=true en inserción.
type AltForceRepository interface {
	UpsertOrder(ctx context.Context, o *entity.AFOrder) (bool, error)
	UpsertBudget(ctx context.Context, b *entity.AFBudget) (bool, error)
	UpsertLead(ctx context.Context, l *entity.AFLead) (bool, error)
	UpsertCustomer(ctx context.Context, c *entity.AFCustomer) (bool, error)
}
