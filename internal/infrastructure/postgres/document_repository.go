package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

var documentColumns = []string{
	"id", "codigo", "name", "revision", "status", "category_id", "document_type", "original_file", "pdf_file",
	"root_id", "requester_id", "analyst_id", "drafter_id", "approver_id", "analyzed_at", "drafter_at",
	"approved_at", "rejected_at", "rejection_reason", "is_active", "text_content", "created_at", "updated_at",
}

// DocumentRepo revisiones de documentos y su auditoría.
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el repositorio sobre el pool o una transacción.
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var d entity.Document
	err := row.Scan(&d.ID, &d.Codigo, &d.Name, &d.Revision, &d.Status, &d.CategoryID, &d.DocumentType,
		&d.OriginalFile, &d.PDFFile, &d.RootID, &d.RequesterID, &d.AnalystID, &d.DrafterID, &d.ApproverID,
		&d.AnalyzedAt, &d.DrafterAt, &d.ApprovedAt, &d.RejectedAt, &d.RejectionReason, &d.IsActive,
		&d.TextContent, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DocumentRepo) list(ctx context.Context, op string, b sq.SelectBuilder) ([]*entity.Document, error) {
	var out []*entity.Document
	err := query(ctx, r.q, op, b, func(rows pgx.Rows) error {
		d, err := scanDocument(rows)
		if err != nil {
			return err
		}
		out = append(out, d)
		return nil
	})
	return out, err
}

func (r *DocumentRepo) one(ctx context.Context, op string, b sq.SelectBuilder) (*entity.Document, error) {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build: %w", op, err)
	}
	d, err := scanDocument(r.q.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap(op, err)
	}
	return d, nil
}

// Create inserta una revisión.
func (r *DocumentRepo) Create(ctx context.Context, d *entity.Document) error {
	b := psql.Insert("documents").Columns(documentColumns...).Values(
		d.ID, d.Codigo, d.Name, d.Revision, d.Status, d.CategoryID, d.DocumentType, d.OriginalFile, d.PDFFile,
		d.RootID, d.RequesterID, d.AnalystID, d.DrafterID, d.ApproverID, d.AnalyzedAt, d.DrafterAt,
		d.ApprovedAt, d.RejectedAt, d.RejectionReason, d.IsActive, d.TextContent, d.CreatedAt, d.UpdatedAt,
	)
	if _, err := exec(ctx, r.q, "insert document", b); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return fmt.Errorf("revisão %d já existe: %w", d.Revision, domain.ErrConflict)
		}
		return err
	}
	return nil
}

// Update persiste todos los campos mutables.
func (r *DocumentRepo) Update(ctx context.Context, d *entity.Document) error {
	b := psql.Update("documents").SetMap(map[string]any{
		"name":             d.Name,
		"status":           d.Status,
		"category_id":      d.CategoryID,
		"document_type":    d.DocumentType,
		"original_file":    d.OriginalFile,
		"pdf_file":         d.PDFFile,
		"analyst_id":       d.AnalystID,
		"drafter_id":       d.DrafterID,
		"approver_id":      d.ApproverID,
		"analyzed_at":      d.AnalyzedAt,
		"drafter_at":       d.DrafterAt,
		"approved_at":      d.ApprovedAt,
		"rejected_at":      d.RejectedAt,
		"rejection_reason": d.RejectionReason,
		"is_active":        d.IsActive,
		"text_content":     d.TextContent,
		"updated_at":       d.UpdatedAt,
	}).Where(sq.Eq{"id": d.ID})
	n, err := exec(ctx, r.q, "update document", b)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID revisión por id.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	return r.one(ctx, "get document", psql.Select(documentColumns...).From("documents").Where(sq.Eq{"id": id}))
}

// GetForUpdate igual a GetByID con SELECT ... FOR UPDATE.
func (r *DocumentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	return r.one(ctx, "lock document", psql.Select(documentColumns...).From("documents").Where(sq.Eq{"id": id}).Suffix("FOR UPDATE"))
}

// Delete elimina la revisión.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	_, err := exec(ctx, r.q, "delete document", psql.Delete("documents").Where(sq.Eq{"id": id}))
	return err
}

// MaxRevision mayor revisión del código; -1 si no hay ninguna.
func (r *DocumentRepo) MaxRevision(ctx context.Context, codigo string) (int, error) {
	var n int
	_, err := queryRow(ctx, r.q, "max revision",
		psql.Select("COALESCE(MAX(revision), -1)").From("documents").Where(sq.Eq{"codigo": codigo}), &n)
	return n, err
}

// HasOpenRevision alguna revisión del código fuera de aprovado/reprovado.
func (r *DocumentRepo) HasOpenRevision(ctx context.Context, codigo string) (bool, error) {
	inner := psql.Select("1").From("documents").
		Where(sq.Eq{"codigo": codigo}).
		Where(sq.NotEq{"status": []string{entity.DocStatusApproved, entity.DocStatusRejected}})
	var open bool
	if _, err := queryRow(ctx, r.q, "open revision", psql.Select().Column(sq.Expr("EXISTS (?)", inner)), &open); err != nil {
		return false, err
	}
	return open, nil
}

// DeactivateApproved inactiva las revisiones aprobadas anteriores.
func (r *DocumentRepo) DeactivateApproved(ctx context.Context, codigo, exceptID string) error {
	_, err := exec(ctx, r.q, "deactivate approved", psql.Update("documents").
		Set("is_active", false).
		Where(sq.Eq{"codigo": codigo, "status": entity.DocStatusApproved}).
		Where(sq.NotEq{"id": exceptID}))
	return err
}

func documentWhere(f entity.DocumentFilter) sq.And {
	where := sq.And{}
	if f.Name != "" {
		where = append(where, sq.ILike{"d.name": ilike(f.Name)})
	}
	if f.CategoryID != "" {
		where = append(where, sq.Eq{"d.category_id": f.CategoryID})
	}
	if f.Status != "" {
		where = append(where, sq.Eq{"d.status": f.Status})
	}
	if f.Active != nil {
		where = append(where, sq.Eq{"d.is_active": *f.Active})
	}
	return where
}

func prefixed(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}

// ListLatestApproved la última revisión aprobada y activa de cada código.
func (r *DocumentRepo) ListLatestApproved(ctx context.Context, f entity.DocumentFilter) ([]*entity.Document, int, error) {
	where := documentWhere(f)
	where = append(where, sq.Eq{"d.status": entity.DocStatusApproved, "d.is_active": true})
	latest := psql.Select(prefixed("d", documentColumns)...).
		Options("DISTINCT ON (d.codigo)").
		From("documents d").Where(where).
		OrderBy("d.codigo", "d.revision DESC")

	total, err := count(ctx, r.q, "count approved", psql.Select("COUNT(*)").FromSelect(latest, "x"))
	if err != nil {
		return nil, 0, err
	}
	page := psql.Select(documentColumns...).FromSelect(latest, "x").OrderBy("lower(name)")
	if f.Limit > 0 {
		page = page.Limit(uint64(f.Limit)).Offset(uint64(f.Offset))
	}
	list, err := r.list(ctx, "list approved", page)
	return list, total, err
}

// List revisiones filtradas, más recientes primero.
func (r *DocumentRepo) List(ctx context.Context, f entity.DocumentFilter) ([]*entity.Document, int, error) {
	where := documentWhere(f)
	total, err := count(ctx, r.q, "count documents", psql.Select("COUNT(*)").From("documents d").Where(where))
	if err != nil {
		return nil, 0, err
	}
	b := psql.Select(prefixed("d", documentColumns)...).From("documents d").Where(where).OrderBy("d.updated_at DESC")
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit)).Offset(uint64(f.Offset))
	}
	list, err := r.list(ctx, "list documents", b)
	return list, total, err
}

// ListPendingFor documentos que esperan una acción del usuario: análisis (si puede analizar),
// elaboración o aprobación.
func (r *DocumentRepo) ListPendingFor(ctx context.Context, userID string, canAnalyze bool) ([]*entity.Document, error) {
	or := sq.Or{
		sq.Eq{"status": entity.DocStatusAwaitingDrafter, "drafter_id": userID},
		sq.Eq{"status": entity.DocStatusAwaitingApprover, "approver_id": userID},
	}
	if canAnalyze {
		or = append(or, sq.Eq{"status": []string{entity.DocStatusAwaitingAnalysis, entity.DocStatusAnalysisDone}})
	}
	return r.list(ctx, "list pending", psql.Select(documentColumns...).From("documents").Where(or).OrderBy("created_at"))
}

// ListRevisions todas las revisiones de un código.
func (r *DocumentRepo) ListRevisions(ctx context.Context, codigo string) ([]*entity.Document, error) {
	return r.list(ctx, "list revisions",
		psql.Select(documentColumns...).From("documents").Where(sq.Eq{"codigo": codigo}).OrderBy("revision DESC"))
}

// SearchApprovedText aprobados activos con texto cuyo nombre o contenido contiene algún término.
func (r *DocumentRepo) SearchApprovedText(ctx context.Context, terms []string, limit int) ([]*entity.Document, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	or := sq.Or{}
	for _, t := range terms {
		p := ilike(t)
		or = append(or, sq.ILike{"name": p}, sq.ILike{"text_content": p})
	}
	b := psql.Select(documentColumns...).From("documents").
		Where(sq.Eq{"status": entity.DocStatusApproved, "is_active": true}).
		Where(sq.NotEq{"text_content": ""}).
		Where(or).
		OrderBy("approved_at DESC NULLS LAST").
		Limit(uint64(limit))
	return r.list(ctx, "search approved text", b)
}

// AddNameChange registra un renombrado.
func (r *DocumentRepo) AddNameChange(ctx context.Context, c *entity.DocumentNameChange) error {
	_, err := exec(ctx, r.q, "insert name change", psql.Insert("document_name_changes").
		Columns("id", "document_id", "old_name", "new_name", "user_id", "at").
		Values(c.ID, c.DocumentID, c.OldName, c.NewName, c.UserID, c.At))
	return err
}

// ListNameChanges historial de nombres, más reciente primero.
func (r *DocumentRepo) ListNameChanges(ctx context.Context, documentID string) ([]*entity.DocumentNameChange, error) {
	b := psql.Select("id", "document_id", "old_name", "new_name", "user_id", "at").
		From("document_name_changes").Where(sq.Eq{"document_id": documentID}).OrderBy("at DESC")
	var out []*entity.DocumentNameChange
	err := query(ctx, r.q, "list name changes", b, func(rows pgx.Rows) error {
		var c entity.DocumentNameChange
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.OldName, &c.NewName, &c.UserID, &c.At); err != nil {
			return err
		}
		out = append(out, &c)
		return nil
	})
	return out, err
}

// AddAccess registra una visualización.
func (r *DocumentRepo) AddAccess(ctx context.Context, a *entity.DocumentAccess) error {
	_, err := exec(ctx, r.q, "insert access", psql.Insert("document_accesses").
		Columns("id", "document_id", "user_id", "at").Values(a.ID, a.DocumentID, a.UserID, a.At))
	return err
}

// ListAccesses últimas visualizaciones con el username.
func (r *DocumentRepo) ListAccesses(ctx context.Context, documentID string, limit int) ([]*entity.DocumentAccess, error) {
	b := psql.Select("a.id", "a.document_id", "a.user_id", "u.username", "a.at").
		From("document_accesses a").Join("users u ON u.id = a.user_id").
		Where(sq.Eq{"a.document_id": documentID}).OrderBy("a.at DESC").Limit(uint64(limit))
	var out []*entity.DocumentAccess
	err := query(ctx, r.q, "list accesses", b, func(rows pgx.Rows) error {
		var a entity.DocumentAccess
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.UserID, &a.Username, &a.At); err != nil {
			return err
		}
		out = append(out, &a)
		return nil
	})
	return out, err
}

// AddDeleted auditoría de borrado.
func (r *DocumentRepo) AddDeleted(ctx context.Context, d *entity.DeletedDocument) error {
	_, err := exec(ctx, r.q, "insert deleted document", psql.Insert("deleted_documents").
		Columns("id", "user_id", "document_name", "revision", "at").
		Values(d.ID, nullIfEmpty(d.UserID), d.DocumentName, d.Revision, d.At))
	return err
}

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

// CategoryRepo categorías de documentos.
type CategoryRepo struct {
	q Querier
}

// NewCategoryRepository construye el repositorio de categorías.
func NewCategoryRepository(q Querier) *CategoryRepo {
	return &CategoryRepo{q: q}
}

// Create inserta la categoría; nombre repetido -> ErrDuplicate.
func (r *CategoryRepo) Create(ctx context.Context, c *entity.Category) error {
	_, err := exec(ctx, r.q, "insert category", psql.Insert("document_categories").
		Columns("id", "name", "blocked", "created_at").Values(c.ID, c.Name, c.Blocked, c.CreatedAt))
	return err
}

// Update renombra o bloquea.
func (r *CategoryRepo) Update(ctx context.Context, c *entity.Category) error {
	n, err := exec(ctx, r.q, "update category", psql.Update("document_categories").
		Set("name", c.Name).Set("blocked", c.Blocked).Where(sq.Eq{"id": c.ID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina la categoría; con documentos asociados -> ErrConflict.
func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	_, err := exec(ctx, r.q, "delete category", psql.Delete("document_categories").Where(sq.Eq{"id": id}))
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("categoria em uso: %w", domain.ErrConflict)
	}
	return err
}

// GetByID categoría por id.
func (r *CategoryRepo) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	var c entity.Category
	found, err := queryRow(ctx, r.q, "get category",
		psql.Select("id", "name", "blocked", "created_at").From("document_categories").Where(sq.Eq{"id": id}),
		&c.ID, &c.Name, &c.Blocked, &c.CreatedAt)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

// List categorías por nombre.
func (r *CategoryRepo) List(ctx context.Context) ([]*entity.Category, error) {
	var out []*entity.Category
	err := query(ctx, r.q, "list categories",
		psql.Select("id", "name", "blocked", "created_at").From("document_categories").OrderBy("name"),
		func(rows pgx.Rows) error {
			var c entity.Category
			if err := rows.Scan(&c.ID, &c.Name, &c.Blocked, &c.CreatedAt); err != nil {
				return err
			}
			out = append(out, &c)
			return nil
		})
	return out, err
}
