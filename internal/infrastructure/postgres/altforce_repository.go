package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
)

var _ repository.AltForceRepository = (*AltForceRepo)(nil)

// AltForceRepo espelho das tabelas fApi*. Cada upsert com filhos roda em transação própria.
type AltForceRepo struct {
	pool *pgxpool.Pool
}

// NewAltForceRepository construye el repositorio sobre el pool.
func NewAltForceRepository(pool *pgxpool.Pool) *AltForceRepo {
	return &AltForceRepo{pool: pool}
}

func (r *AltForceRepo) inTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrap("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return wrap("commit", tx.Commit(ctx))
}

func upsertReturningCreated(ctx context.Context, q Querier, op string, b sq.InsertBuilder) (bool, error) {
	var created bool
	if _, err := queryRow(ctx, q, op, b.Suffix("RETURNING (xmax = 0)"), &created); err != nil {
		return false, err
	}
	return created, nil
}

// UpsertOrder pedido y, si vinieram no payload, orçamentos e produtos.
func (r *AltForceRepo) UpsertOrder(ctx context.Context, o *entity.AFOrder) (bool, error) {
	var created bool
	err := r.inTx(ctx, func(q Querier) error {
		var err error
		created, err = upsertReturningCreated(ctx, q, "upsert af order", psql.Insert("af_orders").
			Columns("altforce_id", "status", "date", "user_external_id", "buyer_name", "freight_name",
				"payment_method_name", "payment_term_name", "price_list_name", "total", "sub_total",
				"tecnicon_number", "raw", "synced_at").
			Values(o.AltforceID, o.Status, o.Date, o.UserExternalID, o.BuyerName, o.FreightName,
				o.PaymentMethodName, o.PaymentTermName, o.PriceListName, o.Total, o.SubTotal,
				o.TecniconNumber, rawJSON(o.Raw), sq.Expr("now()")).
			Suffix(`ON CONFLICT (altforce_id) DO UPDATE SET
				status = EXCLUDED.status, date = EXCLUDED.date, user_external_id = EXCLUDED.user_external_id,
				buyer_name = EXCLUDED.buyer_name, freight_name = EXCLUDED.freight_name,
				payment_method_name = EXCLUDED.payment_method_name, payment_term_name = EXCLUDED.payment_term_name,
				price_list_name = EXCLUDED.price_list_name, total = EXCLUDED.total, sub_total = EXCLUDED.sub_total,
				tecnicon_number = EXCLUDED.tecnicon_number, raw = EXCLUDED.raw, synced_at = EXCLUDED.synced_at`))
		if err != nil {
			return err
		}
		if o.HasBudgetIDs {
			if _, err := exec(ctx, q, "clear af order budgets", psql.Delete("af_order_budgets").Where(sq.Eq{"order_id": o.AltforceID})); err != nil {
				return err
			}
			if len(o.BudgetIDs) > 0 {
				b := psql.Insert("af_order_budgets").Columns("order_id", "budget_id")
				for _, id := range o.BudgetIDs {
					b = b.Values(o.AltforceID, id)
				}
				if _, err := exec(ctx, q, "insert af order budgets", b.Suffix("ON CONFLICT DO NOTHING")); err != nil {
					return err
				}
			}
		}
		if o.HasProducts {
			if _, err := exec(ctx, q, "clear af order products", psql.Delete("af_order_products").Where(sq.Eq{"order_id": o.AltforceID})); err != nil {
				return err
			}
			if len(o.Products) > 0 {
				b := psql.Insert("af_order_products").Columns("order_id", "product_id", "name", "quantity",
					"total_price", "total_price_for_order", "price_liquid", "price_with_optionals", "mask")
				for _, p := range o.Products {
					b = b.Values(o.AltforceID, p.ProductID, p.Name, p.Quantity, p.TotalPrice, p.TotalPriceForOrder,
						p.PriceLiquid, p.PriceWithOptionals, p.Mask)
				}
				if _, err := exec(ctx, q, "insert af order products", b); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return created, err
}

// UpsertBudget orçamento e, se presentes, seus itens.
func (r *AltForceRepo) UpsertBudget(ctx context.Context, bg *entity.AFBudget) (bool, error) {
	var created bool
	err := r.inTx(ctx, func(q Querier) error {
		var err error
		created, err = upsertReturningCreated(ctx, q, "upsert af budget", psql.Insert("af_budgets").
			Columns("altforce_id", "status", "date", "user_name", "user_external_id", "buyer_id", "buyer_name",
				"buyer_email", "buyer_phone", "freight_name", "total", "sub_total", "raw", "synced_at").
			Values(bg.AltforceID, bg.Status, bg.Date, bg.UserName, bg.UserExternalID, bg.BuyerID, bg.BuyerName,
				bg.BuyerEmail, bg.BuyerPhone, bg.FreightName, bg.Total, bg.SubTotal, rawJSON(bg.Raw), sq.Expr("now()")).
			Suffix(`ON CONFLICT (altforce_id) DO UPDATE SET
				status = EXCLUDED.status, date = EXCLUDED.date, user_name = EXCLUDED.user_name,
				user_external_id = EXCLUDED.user_external_id, buyer_id = EXCLUDED.buyer_id,
				buyer_name = EXCLUDED.buyer_name, buyer_email = EXCLUDED.buyer_email,
				buyer_phone = EXCLUDED.buyer_phone, freight_name = EXCLUDED.freight_name,
				total = EXCLUDED.total, sub_total = EXCLUDED.sub_total, raw = EXCLUDED.raw,
				synced_at = EXCLUDED.synced_at`))
		if err != nil || !bg.HasProducts {
			return err
		}
		if _, err := exec(ctx, q, "clear af budget products", psql.Delete("af_budget_products").Where(sq.Eq{"budget_id": bg.AltforceID})); err != nil {
			return err
		}
		if len(bg.Products) == 0 {
			return nil
		}
		b := psql.Insert("af_budget_products").Columns("budget_id", "item_id", "product_id", "name", "quantity", "total_price")
		for _, p := range bg.Products {
			b = b.Values(bg.AltforceID, p.ItemID, p.ProductID, p.Name, p.Quantity, p.TotalPrice)
		}
		_, err = exec(ctx, q, "insert af budget products", b.Suffix("ON CONFLICT (budget_id, item_id) DO NOTHING"))
		return err
	})
	return created, err
}

// UpsertLead lead e, se presentes, suas categorias de interesse.
func (r *AltForceRepo) UpsertLead(ctx context.Context, l *entity.AFLead) (bool, error) {
	var created bool
	err := r.inTx(ctx, func(q Querier) error {
		var err error
		created, err = upsertReturningCreated(ctx, q, "upsert af lead", psql.Insert("af_leads").
			Columns("altforce_id", "status", "date", "user_name", "user_external_id", "client_id", "interest_level", "raw", "synced_at").
			Values(l.AltforceID, l.Status, l.Date, l.UserName, l.UserExternalID, l.ClientID, l.InterestLevel, rawJSON(l.Raw), sq.Expr("now()")).
			Suffix(`ON CONFLICT (altforce_id) DO UPDATE SET
				status = EXCLUDED.status, date = EXCLUDED.date, user_name = EXCLUDED.user_name,
				user_external_id = EXCLUDED.user_external_id, client_id = EXCLUDED.client_id,
				interest_level = EXCLUDED.interest_level, raw = EXCLUDED.raw, synced_at = EXCLUDED.synced_at`))
		if err != nil || !l.HasInterests {
			return err
		}
		if _, err := exec(ctx, q, "clear af lead interests", psql.Delete("af_lead_interests").Where(sq.Eq{"lead_id": l.AltforceID})); err != nil {
			return err
		}
		if len(l.Interests) == 0 {
			return nil
		}
		b := psql.Insert("af_lead_interests").Columns("lead_id", "product_id", "category_name")
		for _, in := range l.Interests {
			b = b.Values(l.AltforceID, in.ProductID, in.CategoryName)
		}
		_, err = exec(ctx, q, "insert af lead interests", b.Suffix("ON CONFLICT (lead_id, product_id) DO NOTHING"))
		return err
	})
	return created, err
}

// UpsertCustomer cliente, sem filhos.
func (r *AltForceRepo) UpsertCustomer(ctx context.Context, c *entity.AFCustomer) (bool, error) {
	return upsertReturningCreated(ctx, r.pool, "upsert af customer", psql.Insert("af_customers").
		Columns("altforce_id", "name", "name_norm", "email", "phone", "city_name", "state_name", "country_name", "raw", "synced_at").
		Values(c.AltforceID, c.Name, c.NameNorm, c.Email, c.Phone, c.CityName, c.StateName, c.CountryName, rawJSON(c.Raw), sq.Expr("now()")).
		Suffix(`ON CONFLICT (altforce_id) DO UPDATE SET
			name = EXCLUDED.name, name_norm = EXCLUDED.name_norm, email = EXCLUDED.email, phone = EXCLUDED.phone,
			city_name = EXCLUDED.city_name, state_name = EXCLUDED.state_name, country_name = EXCLUDED.country_name,
			raw = EXCLUDED.raw, synced_at = EXCLUDED.synced_at`))
}
