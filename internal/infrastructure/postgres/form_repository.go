package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
)

var _ repository.FormRepository = (*FormRepo)(nil)

var formColumns = []string{
	"f.id", "f.title", "f.description", "f.owner_id", "f.public", "f.opens_at", "f.closes_at", "f.response_limit",
	"f.version", "f.accepting_responses", "f.show_on_home", "f.collect_name", "f.repeat_every_minutes", "f.target",
	"f.target_users::text[]", "(SELECT COUNT(*) FROM form_responses r WHERE r.form_id = f.id)", "f.created_at", "f.updated_at",
}

// FormRepo formularios, preguntas, respuestas y estado de la home.
type FormRepo struct {
	q Querier
}

// NewFormRepository construye el repositorio.
func NewFormRepository(q Querier) *FormRepo {
	return &FormRepo{q: q}
}

func scanForm(row pgx.Row) (*entity.Form, error) {
	var f entity.Form
	if err := row.Scan(&f.ID, &f.Title, &f.Description, &f.OwnerID, &f.Public, &f.OpensAt, &f.ClosesAt,
		&f.ResponseLimit, &f.Version, &f.AcceptingResponses, &f.ShowOnHome, &f.CollectName,
		&f.RepeatEveryMinutes, &f.Target, &f.TargetUsers, &f.ResponseCount, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FormRepo) listForms(ctx context.Context, op string, b sq.SelectBuilder) ([]*entity.Form, error) {
	var out []*entity.Form
	err := query(ctx, r.q, op, b, func(rows pgx.Rows) error {
		f, err := scanForm(rows)
		if err != nil {
			return err
		}
		out = append(out, f)
		return nil
	})
	return out, err
}

func formValues(f *entity.Form) map[string]any {
	return map[string]any{
		"title":                f.Title,
		"description":          f.Description,
		"public":               f.Public,
		"opens_at":             f.OpensAt,
		"closes_at":            f.ClosesAt,
		"response_limit":       f.ResponseLimit,
		"accepting_responses":  f.AcceptingResponses,
		"show_on_home":         f.ShowOnHome,
		"collect_name":         f.CollectName,
		"repeat_every_minutes": f.RepeatEveryMinutes,
		"target":               f.Target,
		"target_users":         uuidArray(f.TargetUsers),
		"updated_at":           f.UpdatedAt,
	}
}

// Create inserta el formulario.
func (r *FormRepo) Create(ctx context.Context, f *entity.Form) error {
	values := formValues(f)
	values["id"] = f.ID
	values["owner_id"] = f.OwnerID
	values["version"] = f.Version
	values["created_at"] = f.CreatedAt
	_, err := exec(ctx, r.q, "insert form", psql.Insert("forms").SetMap(values))
	return err
}

// Update persiste la configuración; la versión sólo cambia por BumpVersion.
func (r *FormRepo) Update(ctx context.Context, f *entity.Form) error {
	n, err := exec(ctx, r.q, "update form", psql.Update("forms").SetMap(formValues(f)).Where(sq.Eq{"id": f.ID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el formulario y todo lo dependiente.
func (r *FormRepo) Delete(ctx context.Context, id string) error {
	_, err := exec(ctx, r.q, "delete form", psql.Delete("forms").Where(sq.Eq{"id": id}))
	return err
}

// GetByID formulario con todas sus preguntas (activas o no) en orden.
func (r *FormRepo) GetByID(ctx context.Context, id string) (*entity.Form, error) {
	list, err := r.listForms(ctx, "get form", psql.Select(formColumns...).From("forms f").Where(sq.Eq{"f.id": id}))
	if err != nil || len(list) == 0 {
		return nil, err
	}
	f := list[0]
	b := psql.Select("id", "form_id", "label", "help", "type", "ord", "required", "options", "validation", "active").
		From("form_fields").Where(sq.Eq{"form_id": id}).OrderBy("ord", "id")
	err = query(ctx, r.q, "list form fields", b, func(rows pgx.Rows) error {
		var fl entity.FormField
		var validation []byte
		if err := rows.Scan(&fl.ID, &fl.FormID, &fl.Label, &fl.Help, &fl.Type, &fl.Order, &fl.Required,
			&fl.Options, &validation, &fl.Active); err != nil {
			return err
		}
		if len(validation) > 0 {
			if err := json.Unmarshal(validation, &fl.Validation); err != nil {
				return fmt.Errorf("validation do campo %s: %w", fl.ID, err)
			}
		}
		f.Fields = append(f.Fields, fl)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ListVisibleTo formularios propios o con colaboración.
func (r *FormRepo) ListVisibleTo(ctx context.Context, userID string) ([]*entity.Form, error) {
	collab := psql.Select("1").From("form_collaborators c").
		Where("c.form_id = f.id").
		Where(sq.Eq{"c.user_id": userID}).
		Where(sq.Or{sq.Eq{"c.can_edit": true}, sq.Eq{"c.can_view": true}})
	b := psql.Select(formColumns...).From("forms f").
		Where(sq.Or{sq.Eq{"f.owner_id": userID}, sq.Expr("EXISTS (?)", collab)}).
		OrderBy("f.updated_at DESC")
	return r.listForms(ctx, "list visible forms", b)
}

// ListHomeCandidates formularios marcados para la home y abiertos a respuestas.
func (r *FormRepo) ListHomeCandidates(ctx context.Context) ([]*entity.Form, error) {
	return r.listForms(ctx, "list home forms", psql.Select(formColumns...).From("forms f").
		Where(sq.Eq{"f.show_on_home": true, "f.accepting_responses": true}).
		OrderBy("f.created_at DESC"))
}

// BumpVersion incrementa la versión del esquema y devuelve la nueva.
func (r *FormRepo) BumpVersion(ctx context.Context, formID string) (int, error) {
	var v int
	found, err := queryRow(ctx, r.q, "bump version", psql.Update("forms").
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": formID}).
		Suffix("RETURNING version"), &v)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, domain.ErrNotFound
	}
	return v, nil
}

func validationJSON(v entity.FileValidation) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func stringArray(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// AddField inserta una pregunta.
func (r *FormRepo) AddField(ctx context.Context, fl *entity.FormField) error {
	validation, err := validationJSON(fl.Validation)
	if err != nil {
		return err
	}
	_, err = exec(ctx, r.q, "insert form field", psql.Insert("form_fields").
		Columns("id", "form_id", "label", "help", "type", "ord", "required", "options", "validation", "active").
		Values(fl.ID, fl.FormID, fl.Label, fl.Help, fl.Type, fl.Order, fl.Required, stringArray(fl.Options), validation, fl.Active))
	return err
}

// UpdateField persiste la pregunta.
func (r *FormRepo) UpdateField(ctx context.Context, fl *entity.FormField) error {
	validation, err := validationJSON(fl.Validation)
	if err != nil {
		return err
	}
	n, err := exec(ctx, r.q, "update form field", psql.Update("form_fields").SetMap(map[string]any{
		"label":      fl.Label,
		"help":       fl.Help,
		"type":       fl.Type,
		"required":   fl.Required,
		"options":    stringArray(fl.Options),
		"validation": validation,
		"active":     fl.Active,
	}).Where(sq.Eq{"id": fl.ID, "form_id": fl.FormID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteField desactiva la pregunta; los valores ya respondidos se conservan.
func (r *FormRepo) DeleteField(ctx context.Context, formID, fieldID string) error {
	n, err := exec(ctx, r.q, "delete form field", psql.Update("form_fields").
		Set("active", false).
		Where(sq.Eq{"id": fieldID, "form_id": formID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReorderFields asigna ord = posición (1..n) según orderedIDs.
func (r *FormRepo) ReorderFields(ctx context.Context, formID string, orderedIDs []string) error {
	for i, id := range orderedIDs {
		if _, err := exec(ctx, r.q, "reorder form field", psql.Update("form_fields").
			Set("ord", i+1).
			Where(sq.Eq{"id": id, "form_id": formID})); err != nil {
			return err
		}
	}
	return nil
}

// SetCollaborators reemplaza la lista de colaboradores.
func (r *FormRepo) SetCollaborators(ctx context.Context, formID string, collabs []entity.FormCollaborator) error {
	if _, err := exec(ctx, r.q, "clear collaborators", psql.Delete("form_collaborators").Where(sq.Eq{"form_id": formID})); err != nil {
		return err
	}
	if len(collabs) == 0 {
		return nil
	}
	b := psql.Insert("form_collaborators").Columns("form_id", "user_id", "can_edit", "can_view")
	for _, c := range collabs {
		b = b.Values(formID, c.UserID, c.CanEdit, c.CanView)
	}
	_, err := exec(ctx, r.q, "insert collaborators", b.Suffix("ON CONFLICT (form_id, user_id) DO NOTHING"))
	return err
}

// GetCollaborator permisos del usuario sobre un formulario ajeno; nil si no colabora.
func (r *FormRepo) GetCollaborator(ctx context.Context, formID, userID string) (*entity.FormCollaborator, error) {
	c := entity.FormCollaborator{FormID: formID, UserID: userID}
	found, err := queryRow(ctx, r.q, "get collaborator", psql.Select("can_edit", "can_view").
		From("form_collaborators").Where(sq.Eq{"form_id": formID, "user_id": userID}), &c.CanEdit, &c.CanView)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

// CreateResponse inserta la respuesta y sus valores.
func (r *FormRepo) CreateResponse(ctx context.Context, resp *entity.FormResponse) error {
	if _, err := exec(ctx, r.q, "insert form response", psql.Insert("form_responses").
		Columns("id", "form_id", "user_id", "ip", "form_version", "collected_name", "created_at").
		Values(resp.ID, resp.FormID, resp.UserID, resp.IP, resp.FormVersion, resp.CollectedName, resp.CreatedAt)); err != nil {
		return err
	}
	if len(resp.Values) == 0 {
		return nil
	}
	b := psql.Insert("form_values").Columns("id", "response_id", "field_id", "text", "file_path", "file_name")
	for _, v := range resp.Values {
		b = b.Values(v.ID, resp.ID, v.FieldID, v.Text, v.FilePath, v.FileName)
	}
	_, err := exec(ctx, r.q, "insert form values", b)
	return err
}

// CountResponses total de respuestas del formulario.
func (r *FormRepo) CountResponses(ctx context.Context, formID string) (int, error) {
	return count(ctx, r.q, "count responses", psql.Select("COUNT(*)").From("form_responses").Where(sq.Eq{"form_id": formID}))
}

// ListResponses página de respuestas en orden de llegada, con sus valores.
func (r *FormRepo) ListResponses(ctx context.Context, formID string, limit, offset int) ([]*entity.FormResponse, int, error) {
	total, err := r.CountResponses(ctx, formID)
	if err != nil {
		return nil, 0, err
	}
	b := psql.Select("id", "form_id", "user_id", "ip", "form_version", "collected_name", "created_at").
		From("form_responses").Where(sq.Eq{"form_id": formID}).OrderBy("created_at", "id")
	if limit > 0 {
		b = b.Limit(uint64(limit)).Offset(uint64(offset))
	}
	var out []*entity.FormResponse
	byID := map[string]*entity.FormResponse{}
	err = query(ctx, r.q, "list responses", b, func(rows pgx.Rows) error {
		var resp entity.FormResponse
		if err := rows.Scan(&resp.ID, &resp.FormID, &resp.UserID, &resp.IP, &resp.FormVersion,
			&resp.CollectedName, &resp.CreatedAt); err != nil {
			return err
		}
		out = append(out, &resp)
		byID[resp.ID] = &resp
		return nil
	})
	if err != nil || len(out) == 0 {
		return out, total, err
	}

	ids := make([]string, 0, len(out))
	for _, resp := range out {
		ids = append(ids, resp.ID)
	}
	vb := psql.Select("id", "response_id", "field_id", "text", "file_path", "file_name").
		From("form_values").Where(sq.Eq{"response_id": ids}).OrderBy("id")
	err = query(ctx, r.q, "list form values", vb, func(rows pgx.Rows) error {
		var v entity.FormValue
		var responseID string
		if err := rows.Scan(&v.ID, &responseID, &v.FieldID, &v.Text, &v.FilePath, &v.FileName); err != nil {
			return err
		}
		if resp := byID[responseID]; resp != nil {
			resp.Values = append(resp.Values, v)
		}
		return nil
	})
	return out, total, err
}

// GetUserState estado de la home del usuario; nil si nunca interactuó.
func (r *FormRepo) GetUserState(ctx context.Context, formID, userID string) (*entity.FormUserState, error) {
	s := entity.FormUserState{FormID: formID, UserID: userID}
	found, err := queryRow(ctx, r.q, "get user state", psql.Select("last_answered_at", "dismissed").
		From("form_user_states").Where(sq.Eq{"form_id": formID, "user_id": userID}), &s.LastAnsweredAt, &s.Dismissed)
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

// UpsertUserState guarda el estado; un LastAnsweredAt nil no borra el anterior.
func (r *FormRepo) UpsertUserState(ctx context.Context, s *entity.FormUserState) error {
	_, err := exec(ctx, r.q, "upsert user state", psql.Insert("form_user_states").
		Columns("form_id", "user_id", "last_answered_at", "dismissed").
		Values(s.FormID, s.UserID, s.LastAnsweredAt, s.Dismissed).
		Suffix(`ON CONFLICT (form_id, user_id) DO UPDATE SET
			last_answered_at = COALESCE(EXCLUDED.last_answered_at, form_user_states.last_answered_at),
			dismissed = form_user_states.dismissed OR EXCLUDED.dismissed`))
	return err
}
