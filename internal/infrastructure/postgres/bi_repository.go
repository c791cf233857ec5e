package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
)

var _ repository.BIRepository = (*BIRepo)(nil)

var biReportColumns = []string{
	"id", "title", "embed_code", "workspace_id", "report_id", "dataset_id", "all_users",
	"allowed_users::text[]", "allowed_groups::text[]", "last_updated", "next_update", "created_at", "updated_at",
}

var biViewColumns = []string{
	"id", "report_id", "owner_id", "name", "state", "is_default", "share_token", "created_at", "updated_at",
}

// BIRepo relatórios Power BI, accesos y vistas guardadas.
type BIRepo struct {
	q Querier
}

// NewBIRepository construye el repositorio.
func NewBIRepository(q Querier) *BIRepo {
	return &BIRepo{q: q}
}

func scanBIReport(row pgx.Row) (*entity.BIReport, error) {
	var r entity.BIReport
	if err := row.Scan(&r.ID, &r.Title, &r.EmbedCode, &r.WorkspaceID, &r.ReportID, &r.DatasetID, &r.AllUsers,
		&r.AllowedUsers, &r.AllowedGroups, &r.LastUpdated, &r.NextUpdate, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func uuidArray(ids []string) sq.Sqlizer {
	if ids == nil {
		ids = []string{}
	}
	return sq.Expr("?::uuid[]", ids)
}

func (r *BIRepo) listReports(ctx context.Context, op string, b sq.SelectBuilder) ([]*entity.BIReport, error) {
	var out []*entity.BIReport
	err := query(ctx, r.q, op, b, func(rows pgx.Rows) error {
		rep, err := scanBIReport(rows)
		if err != nil {
			return err
		}
		out = append(out, rep)
		return nil
	})
	return out, err
}

// Create inserta el relatório.
func (r *BIRepo) Create(ctx context.Context, rep *entity.BIReport) error {
	_, err := exec(ctx, r.q, "insert bi report", psql.Insert("bi_reports").
		Columns("id", "title", "embed_code", "workspace_id", "report_id", "dataset_id", "all_users",
			"allowed_users", "allowed_groups", "last_updated", "next_update", "created_at", "updated_at").
		Values(rep.ID, rep.Title, rep.EmbedCode, rep.WorkspaceID, rep.ReportID, rep.DatasetID, rep.AllUsers,
			uuidArray(rep.AllowedUsers), uuidArray(rep.AllowedGroups), rep.LastUpdated, rep.NextUpdate,
			rep.CreatedAt, rep.UpdatedAt))
	return err
}

// Update persiste los campos editables.
func (r *BIRepo) Update(ctx context.Context, rep *entity.BIReport) error {
	n, err := exec(ctx, r.q, "update bi report", psql.Update("bi_reports").SetMap(map[string]any{
		"title":          rep.Title,
		"embed_code":     rep.EmbedCode,
		"workspace_id":   rep.WorkspaceID,
		"report_id":      rep.ReportID,
		"dataset_id":     rep.DatasetID,
		"all_users":      rep.AllUsers,
		"allowed_users":  uuidArray(rep.AllowedUsers),
		"allowed_groups": uuidArray(rep.AllowedGroups),
		"next_update":    rep.NextUpdate,
		"updated_at":     rep.UpdatedAt,
	}).Where(sq.Eq{"id": rep.ID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el relatório con sus accesos y vistas.
func (r *BIRepo) Delete(ctx context.Context, id string) error {
	_, err := exec(ctx, r.q, "delete bi report", psql.Delete("bi_reports").Where(sq.Eq{"id": id}))
	return err
}

// GetByID relatório por id.
func (r *BIRepo) GetByID(ctx context.Context, id string) (*entity.BIReport, error) {
	list, err := r.listReports(ctx, "get bi report",
		psql.Select(biReportColumns...).From("bi_reports").Where(sq.Eq{"id": id}))
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

// List todos por título.
func (r *BIRepo) List(ctx context.Context) ([]*entity.BIReport, error) {
	return r.listReports(ctx, "list bi reports", psql.Select(biReportColumns...).From("bi_reports").OrderBy("title"))
}

// ListForUser relatórios abiertos a todos, al usuario o a alguno de sus grupos.
func (r *BIRepo) ListForUser(ctx context.Context, userID string, groupIDs []string) ([]*entity.BIReport, error) {
	where := sq.Or{
		sq.Eq{"all_users": true},
		sq.Expr("?::uuid = ANY(allowed_users)", userID),
	}
	if len(groupIDs) > 0 {
		where = append(where, sq.Expr("allowed_groups && ?::uuid[]", groupIDs))
	}
	return r.listReports(ctx, "list bi reports for user",
		psql.Select(biReportColumns...).From("bi_reports").Where(where).OrderBy("title"))
}

// SetLastUpdated fecha del último refresh observado en Power BI.
func (r *BIRepo) SetLastUpdated(ctx context.Context, id string, at time.Time) error {
	_, err := exec(ctx, r.q, "set last updated",
		psql.Update("bi_reports").Set("last_updated", at).Where(sq.Eq{"id": id}))
	return err
}

// LogAccess registra la apertura de un relatório.
func (r *BIRepo) LogAccess(ctx context.Context, a *entity.BIAccess) error {
	_, err := exec(ctx, r.q, "insert bi access", psql.Insert("bi_accesses").
		Columns("id", "report_id", "user_id", "at").Values(a.ID, a.ReportID, a.UserID, a.At))
	return err
}

// ListAccesses últimos accesos con username.
func (r *BIRepo) ListAccesses(ctx context.Context, reportID string, limit int) ([]*entity.BIAccess, error) {
	b := psql.Select("a.id", "a.report_id", "a.user_id", "u.username", "a.at").
		From("bi_accesses a").Join("users u ON u.id = a.user_id").
		Where(sq.Eq{"a.report_id": reportID}).OrderBy("a.at DESC").Limit(uint64(limit))
	var out []*entity.BIAccess
	err := query(ctx, r.q, "list bi accesses", b, func(rows pgx.Rows) error {
		var a entity.BIAccess
		if err := rows.Scan(&a.ID, &a.ReportID, &a.UserID, &a.Username, &a.At); err != nil {
			return err
		}
		out = append(out, &a)
		return nil
	})
	return out, err
}

func scanBIView(row pgx.Row) (*entity.BISavedView, error) {
	var v entity.BISavedView
	if err := row.Scan(&v.ID, &v.ReportID, &v.OwnerID, &v.Name, &v.State, &v.IsDefault, &v.ShareToken,
		&v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *BIRepo) listViews(ctx context.Context, op string, b sq.SelectBuilder) ([]*entity.BISavedView, error) {
	var out []*entity.BISavedView
	err := query(ctx, r.q, op, b, func(rows pgx.Rows) error {
		v, err := scanBIView(rows)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

// CreateView inserta la vista; nombre repetido para el mismo dueño -> ErrDuplicate.
func (r *BIRepo) CreateView(ctx context.Context, v *entity.BISavedView) error {
	state := v.State
	if len(state) == 0 {
		state = []byte("{}")
	}
	_, err := exec(ctx, r.q, "insert bi view", psql.Insert("bi_saved_views").Columns(biViewColumns...).
		Values(v.ID, v.ReportID, v.OwnerID, v.Name, string(state), v.IsDefault, v.ShareToken, v.CreatedAt, v.UpdatedAt))
	return err
}

// GetView vista por id.
func (r *BIRepo) GetView(ctx context.Context, id string) (*entity.BISavedView, error) {
	list, err := r.listViews(ctx, "get bi view", psql.Select(biViewColumns...).From("bi_saved_views").Where(sq.Eq{"id": id}))
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

// GetViewByToken vista compartida.
func (r *BIRepo) GetViewByToken(ctx context.Context, token string) (*entity.BISavedView, error) {
	list, err := r.listViews(ctx, "get bi view by token",
		psql.Select(biViewColumns...).From("bi_saved_views").Where(sq.Eq{"share_token": token}))
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

// ListViews vistas del dueño para un relatório, la default primero.
func (r *BIRepo) ListViews(ctx context.Context, reportID, ownerID string) ([]*entity.BISavedView, error) {
	return r.listViews(ctx, "list bi views", psql.Select(biViewColumns...).From("bi_saved_views").
		Where(sq.Eq{"report_id": reportID, "owner_id": ownerID}).
		OrderBy("is_default DESC", "name"))
}

// DeleteView elimina la vista.
func (r *BIRepo) DeleteView(ctx context.Context, id string) error {
	_, err := exec(ctx, r.q, "delete bi view", psql.Delete("bi_saved_views").Where(sq.Eq{"id": id}))
	return err
}

// SetDefaultView deja una sola vista default por (relatório, dueño). viewID vacío limpia la default.
func (r *BIRepo) SetDefaultView(ctx context.Context, reportID, ownerID, viewID string) error {
	b := psql.Update("bi_saved_views").
		Set("is_default", sq.Expr("id::text = ?", viewID)).
		Where(sq.Eq{"report_id": reportID, "owner_id": ownerID})
	_, err := exec(ctx, r.q, "set default view", b)
	return err
}

// SetShareToken publica (token) o revoca (nil) el enlace compartido.
func (r *BIRepo) SetShareToken(ctx context.Context, viewID string, token *string) error {
	n, err := exec(ctx, r.q, "set share token",
		psql.Update("bi_saved_views").Set("share_token", token).Where(sq.Eq{"id": viewID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
