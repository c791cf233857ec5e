package repository

import (
	"context"
	"time"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

// EPIRepository entregas de EPI.
type EPIRepository interface {
	Upsert(ctx context.Context, d *entity.EPIDelivery) (bool, error)
	GetByID(ctx context.Context, id string) (*entity.EPIDelivery, error)
	List(ctx context.Context, f entity.EPIFilter) ([]*entity.EPIDelivery, int, error)
	// WriteOff baixa sólo filas Pendente; devuelve cuántas cambiaron.
	WriteOff(ctx context.Context, ids []string, sequence string, at time.Time) (int, error)
	// Revert vuelve a Pendente sólo filas Baixado.
	Revert(ctx context.Context, ids []string) (int, error)
	// WriteOffByKey baixa por la clave natural (importación del ERP).
	WriteOffByKey(ctx context.Context, unit, contract, epi, lot string, deliveredAt time.Time, sequence string, at time.Time) (bool, error)
}
