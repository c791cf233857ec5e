package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
)

var _ repository.EPIRepository = (*EPIRepo)(nil)

var epiColumns = []string{
	"id", "unit", "contract", "epi", "stock_code", "lot", "delivered_at", "returned_at", "quantity",
	"employee_name", "epi_description", "cost_center", "cost_center_description", "status", "erp_sequence",
	"erp_written_off_at", "raw", "created_at", "updated_at",
}

// EPIRepo entregas de EPI y su baja en el ERP.
type EPIRepo struct {
	q Querier
}

// NewEPIRepository construye el repositorio.
func NewEPIRepository(q Querier) *EPIRepo {
	return &EPIRepo{q: q}
}

func rawJSON(raw []byte) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}

// Upsert inserta o actualiza por clave natural; status y datos de baja no se tocan. Devuelve si creó.
func (r *EPIRepo) Upsert(ctx context.Context, d *entity.EPIDelivery) (bool, error) {
	status := d.Status
	if status == "" {
		status = entity.EPIStatusPending
	}
	b := psql.Insert("epi_deliveries").Columns(epiColumns...).
		Values(d.ID, d.Unit, d.Contract, d.EPI, d.StockCode, d.Lot, d.DeliveredAt, d.ReturnedAt, d.Quantity,
			d.EmployeeName, d.EPIDescription, d.CostCenter, d.CostCenterDescription, status, d.ERPSequence,
			d.ERPWrittenOffAt, rawJSON(d.Raw), d.CreatedAt, d.UpdatedAt).
		Suffix(`ON CONFLICT ON CONSTRAINT uq_epi_delivery DO UPDATE SET
			stock_code = EXCLUDED.stock_code,
			returned_at = EXCLUDED.returned_at,
			quantity = EXCLUDED.quantity,
			employee_name = EXCLUDED.employee_name,
			epi_description = EXCLUDED.epi_description,
			cost_center = EXCLUDED.cost_center,
			cost_center_description = EXCLUDED.cost_center_description,
			raw = EXCLUDED.raw,
			updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0)`)
	var created bool
	if _, err := queryRow(ctx, r.q, "upsert epi delivery", b, &created); err != nil {
		return false, err
	}
	return created, nil
}

func scanEPI(row pgx.Row) (*entity.EPIDelivery, error) {
	var d entity.EPIDelivery
	if err := row.Scan(&d.ID, &d.Unit, &d.Contract, &d.EPI, &d.StockCode, &d.Lot, &d.DeliveredAt, &d.ReturnedAt,
		&d.Quantity, &d.EmployeeName, &d.EPIDescription, &d.CostCenter, &d.CostCenterDescription, &d.Status,
		&d.ERPSequence, &d.ERPWrittenOffAt, &d.Raw, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *EPIRepo) list(ctx context.Context, op string, b sq.SelectBuilder) ([]*entity.EPIDelivery, error) {
	var out []*entity.EPIDelivery
	err := query(ctx, r.q, op, b, func(rows pgx.Rows) error {
		d, err := scanEPI(rows)
		if err != nil {
			return err
		}
		out = append(out, d)
		return nil
	})
	return out, err
}

// GetByID entrega por id.
func (r *EPIRepo) GetByID(ctx context.Context, id string) (*entity.EPIDelivery, error) {
	list, err := r.list(ctx, "get epi delivery", psql.Select(epiColumns...).From("epi_deliveries").Where(sq.Eq{"id": id}))
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func epiWhere(f entity.EPIFilter) sq.And {
	where := sq.And{}
	if f.Status != "" {
		where = append(where, sq.Eq{"status": f.Status})
	}
	if f.Unit != "" {
		where = append(where, sq.ILike{"unit": ilike(f.Unit)})
	}
	if f.Contract != "" {
		where = append(where, sq.Eq{"contract": f.Contract})
	}
	if f.StockCode != "" {
		where = append(where, sq.Eq{"stock_code": f.StockCode})
	}
	if f.Sequence != "" {
		where = append(where, sq.Eq{"erp_sequence": f.Sequence})
	}
	if f.Employee != "" {
		where = append(where, sq.ILike{"employee_name": ilike(f.Employee)})
	}
	if f.From != nil {
		where = append(where, sq.GtOrEq{"delivered_at": *f.From})
	}
	if f.To != nil {
		where = append(where, sq.LtOrEq{"delivered_at": *f.To})
	}
	return where
}

// List entregas filtradas, más recientes primero.
func (r *EPIRepo) List(ctx context.Context, f entity.EPIFilter) ([]*entity.EPIDelivery, int, error) {
	where := epiWhere(f)
	total, err := count(ctx, r.q, "count epi deliveries", psql.Select("COUNT(*)").From("epi_deliveries").Where(where))
	if err != nil {
		return nil, 0, err
	}
	b := psql.Select(epiColumns...).From("epi_deliveries").Where(where).OrderBy("delivered_at DESC", "contract", "epi")
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit)).Offset(uint64(f.Offset))
	}
	list, err := r.list(ctx, "list epi deliveries", b)
	return list, total, err
}

// WriteOff marca como Baixado las entregas pendientes indicadas.
func (r *EPIRepo) WriteOff(ctx context.Context, ids []string, sequence string, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := exec(ctx, r.q, "write off epi", psql.Update("epi_deliveries").
		Set("status", entity.EPIStatusWrittenOff).
		Set("erp_sequence", sequence).
		Set("erp_written_off_at", at).
		Set("updated_at", at).
		Where(sq.Eq{"id": ids, "status": entity.EPIStatusPending}))
	return int(n), err
}

// Revert vuelve a Pendente las entregas dadas de baja y limpia los datos del ERP.
func (r *EPIRepo) Revert(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := exec(ctx, r.q, "revert epi", psql.Update("epi_deliveries").
		Set("status", entity.EPIStatusPending).
		Set("erp_sequence", nil).
		Set("erp_written_off_at", nil).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": ids, "status": entity.EPIStatusWrittenOff}))
	return int(n), err
}

// WriteOffByKey baja por clave natural (importación del ERP); false si no hay pendiente con esa clave.
func (r *EPIRepo) WriteOffByKey(ctx context.Context, unit, contract, epi, lot string, deliveredAt time.Time, sequence string, at time.Time) (bool, error) {
	n, err := exec(ctx, r.q, "write off epi by key", psql.Update("epi_deliveries").
		Set("status", entity.EPIStatusWrittenOff).
		Set("erp_sequence", sequence).
		Set("erp_written_off_at", at).
		Set("updated_at", at).
		Where(sq.Eq{
			"unit":         unit,
			"contract":     contract,
			"epi":          epi,
			"lot":          lot,
			"delivered_at": deliveredAt,
			"status":       entity.EPIStatusPending,
		}))
	return n > 0, err
}
