package usecase

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/form"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
	"github.com/jhoicas/portal-intranet/pkg/logger"
	"github.com/jhoicas/portal-intranet/pkg/textutil"
)

// FormUseCase formularios dinámicos: esquema versionado, envío, exportaciones y home.
type FormUseCase struct {
	repo    repository.FormRepository
	users   repository.UserRepository
	tx      ports.TxRunner
	storage ports.FileStorage
	reports ports.ReportRenderer
	log     *logger.Logger
	now     func() time.Time
}

// NewFormUseCase construye el caso de uso.
func NewFormUseCase(repo repository.FormRepository, users repository.UserRepository, tx ports.TxRunner, storage ports.FileStorage, reports ports.ReportRenderer, log *logger.Logger) *FormUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &FormUseCase{repo: repo, users: users, tx: tx, storage: storage, reports: reports, log: log.Named("formularios"), now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (uc *FormUseCase) WithClock(now func() time.Time) *FormUseCase {
	uc.now = now
	return uc
}

// Create alta de formulario con versión 1; el creador es el dono.
func (uc *FormUseCase) Create(ctx context.Context, actor dto.Principal, in dto.FormRequest) (*dto.FormResponse, error) {
	now := uc.now()
	f := &entity.Form{ID: uuid.New().String(), OwnerID: actor.UserID, Version: 1, CreatedAt: now}
	if err := applyFormRequest(f, in); err != nil {
		return nil, err
	}
	f.UpdatedAt = now
	if err := uc.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	return uc.toResponse(f), nil
}

// Update cambia la configuración (no el esquema; la versión no cambia).
func (uc *FormUseCase) Update(ctx context.Context, actor dto.Principal, id string, in dto.FormRequest) (*dto.FormResponse, error) {
	f, err := uc.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := applyFormRequest(f, in); err != nil {
		return nil, err
	}
	f.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, f); err != nil {
		return nil, err
	}
	return uc.toResponse(f), nil
}

func applyFormRequest(f *entity.Form, in dto.FormRequest) error {
	if in.OpensAt != nil && in.ClosesAt != nil && in.ClosesAt.Before(*in.OpensAt) {
		return fmt.Errorf("%w: encerramento anterior à abertura", domain.ErrInvalidInput)
	}
	target := in.Target
	if target == "" {
		target = entity.TargetAll
	}
	if target == entity.TargetManual && len(in.TargetUsers) == 0 {
		return fmt.Errorf("%w: público manual exige usuários", domain.ErrInvalidInput)
	}
	f.Title = strings.TrimSpace(in.Title)
	f.Description = in.Description
	f.Public = in.Public
	f.OpensAt, f.ClosesAt = in.OpensAt, in.ClosesAt
	f.ResponseLimit = in.ResponseLimit
	f.AcceptingResponses = in.AcceptingResponses
	f.ShowOnHome = in.ShowOnHome
	f.CollectName = in.CollectName
	f.RepeatEveryMinutes = in.RepeatEveryMinutes
	f.Target = target
	f.TargetUsers = dedupe(in.TargetUsers)
	return nil
}

// Delete elimina el formulario (dono o gestor).
func (uc *FormUseCase) Delete(ctx context.Context, actor dto.Principal, id string) error {
	f, err := uc.mustGet(ctx, id)
	if err != nil {
		return err
	}
	if f.OwnerID != actor.UserID && !actor.Can(entity.PermManageForms) {
		return domain.ErrForbidden
	}
	return uc.repo.Delete(ctx, id)
}

// Get formulario completo para edición/visualización.
func (uc *FormUseCase) Get(ctx context.Context, actor dto.Principal, id string) (*dto.FormResponse, error) {
	f, err := uc.viewable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return uc.toResponse(f), nil
}

// GetForAnswer formulario con sólo los campos activos; los privados exigen login.
func (uc *FormUseCase) GetForAnswer(ctx context.Context, actor *dto.Principal, id string) (*dto.FormResponse, error) {
	f, err := uc.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canAnswer(f, actor); err != nil {
		return nil, err
	}
	resp := uc.toResponse(f)
	active := resp.Fields[:0]
	for _, fr := range resp.Fields {
		if fr.Active {
			active = append(active, fr)
		}
	}
	resp.Fields = active
	resp.TargetUsers = nil
	return resp, nil
}

// ListMine formularios propios o compartidos con el usuario.
func (uc *FormUseCase) ListMine(ctx context.Context, actor dto.Principal) ([]dto.FormResponse, error) {
	list, err := uc.repo.ListVisibleTo(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.FormResponse, 0, len(list))
	for _, f := range list {
		r := uc.toResponse(f)
		r.Fields = nil
		out = append(out, *r)
	}
	return out, nil
}

// AddField agrega una pregunta al final y sube la versión.
func (uc *FormUseCase) AddField(ctx context.Context, actor dto.Principal, formID string, in dto.FieldRequest) (*dto.FormResponse, error) {
	f, err := uc.editable(ctx, actor, formID)
	if err != nil {
		return nil, err
	}
	field := &entity.FormField{ID: uuid.New().String(), FormID: f.ID, Order: len(f.Fields) + 1, Active: true}
	if err := applyFieldRequest(field, in); err != nil {
		return nil, err
	}
	return uc.schemaChange(ctx, f.ID, func(r ports.TxRepos) error {
		return r.Forms.AddField(ctx, field)
	})
}

// UpdateField edita una pregunta y sube la versión.
func (uc *FormUseCase) UpdateField(ctx context.Context, actor dto.Principal, formID, fieldID string, in dto.FieldRequest) (*dto.FormResponse, error) {
	f, err := uc.editable(ctx, actor, formID)
	if err != nil {
		return nil, err
	}
	var field *entity.FormField
	for i := range f.Fields {
		if f.Fields[i].ID == fieldID {
			field = &f.Fields[i]
		}
	}
	if field == nil {
		return nil, domain.ErrNotFound
	}
	if err := applyFieldRequest(field, in); err != nil {
		return nil, err
	}
	return uc.schemaChange(ctx, f.ID, func(r ports.TxRepos) error {
		return r.Forms.UpdateField(ctx, field)
	})
}

// DeleteField quita una pregunta y sube la versión. Las respuestas anteriores conservan sus valores.
func (uc *FormUseCase) DeleteField(ctx context.Context, actor dto.Principal, formID, fieldID string) (*dto.FormResponse, error) {
	if _, err := uc.editable(ctx, actor, formID); err != nil {
		return nil, err
	}
	return uc.schemaChange(ctx, formID, func(r ports.TxRepos) error {
		return r.Forms.DeleteField(ctx, formID, fieldID)
	})
}

// ReorderFields reordena las preguntas y sube la versión.
func (uc *FormUseCase) ReorderFields(ctx context.Context, actor dto.Principal, formID string, ids []string) (*dto.FormResponse, error) {
	f, err := uc.editable(ctx, actor, formID)
	if err != nil {
		return nil, err
	}
	known := map[string]bool{}
	for _, fl := range f.Fields {
		known[fl.ID] = true
	}
	if len(ids) != len(known) {
		return nil, fmt.Errorf("%w: a nova ordem deve conter todas as perguntas", domain.ErrInvalidInput)
	}
	for _, id := range ids {
		if !known[id] {
			return nil, fmt.Errorf("%w: pergunta %s não pertence ao formulário", domain.ErrInvalidInput, id)
		}
	}
	return uc.schemaChange(ctx, formID, func(r ports.TxRepos) error {
		return r.Forms.ReorderFields(ctx, formID, ids)
	})
}

func (uc *FormUseCase) schemaChange(ctx context.Context, formID string, fn func(r ports.TxRepos) error) (*dto.FormResponse, error) {
	err := uc.tx.Run(ctx, func(r ports.TxRepos) error {
		if err := fn(r); err != nil {
			return err
		}
		_, err := r.Forms.BumpVersion(ctx, formID)
		return err
	})
	if err != nil {
		return nil, err
	}
	f, err := uc.mustGet(ctx, formID)
	if err != nil {
		return nil, err
	}
	return uc.toResponse(f), nil
}

func applyFieldRequest(field *entity.FormField, in dto.FieldRequest) error {
	if !entity.IsValidFieldType(in.Type) {
		return fmt.Errorf("%w: tipo de campo %q", domain.ErrInvalidInput, in.Type)
	}
	var opts []string
	for _, o := range in.Options {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, o)
		}
	}
	switch in.Type {
	case entity.FieldChoice, entity.FieldCheckbox, entity.FieldDropdown:
		if len(opts) == 0 {
			return fmt.Errorf("%w: “%s” precisa de opções", domain.ErrInvalidInput, in.Label)
		}
	default:
		opts = nil
	}
	for _, c := range in.Validation.Categories {
		if _, ok := form.FileCategories[c]; !ok {
			return fmt.Errorf("%w: categoria de arquivo %q", domain.ErrInvalidInput, c)
		}
	}
	field.Label = strings.TrimSpace(in.Label)
	field.Help = in.Help
	field.Type = in.Type
	field.Required = in.Required
	field.Options = opts
	field.Validation = in.Validation
	if in.Active != nil {
		field.Active = *in.Active
	}
	return nil
}

// SetCollaborators reemplaza los colaboradores (sólo el dono o gestor).
func (uc *FormUseCase) SetCollaborators(ctx context.Context, actor dto.Principal, formID string, in dto.CollaboratorsRequest) error {
	f, err := uc.mustGet(ctx, formID)
	if err != nil {
		return err
	}
	if f.OwnerID != actor.UserID && !actor.Can(entity.PermManageForms) {
		return domain.ErrForbidden
	}
	collabs := make([]entity.FormCollaborator, 0, len(in.Collaborators))
	for _, c := range in.Collaborators {
		if c.UserID == f.OwnerID {
			continue
		}
		collabs = append(collabs, entity.FormCollaborator{FormID: formID, UserID: c.UserID, CanEdit: c.CanEdit, CanView: c.CanView || c.CanEdit})
	}
	return uc.repo.SetCollaborators(ctx, formID, collabs)
}

// Submit valida y guarda una respuesta. actor nil = envío anónimo (sólo formularios públicos).
// Los errores de validación se devuelven como *form.ValidationErrors.
func (uc *FormUseCase) Submit(ctx context.Context, actor *dto.Principal, formID string, in dto.SubmitFormRequest) (*dto.SubmitResponse, error) {
	f, err := uc.mustGet(ctx, formID)
	if err != nil {
		return nil, err
	}
	if err := canAnswer(f, actor); err != nil {
		return nil, err
	}
	now := uc.now()
	sub := form.Submission{Values: in.Values, Files: map[string][]form.Upload{}, Name: in.Name, Authenticated: actor != nil}
	for fieldID, ups := range in.Files {
		for _, up := range ups {
			sub.Files[fieldID] = append(sub.Files[fieldID], form.Upload{FileName: up.FileName, Size: int64(len(up.Data))})
		}
	}
	if verrs := form.ValidateSubmission(f, f.ResponseCount, sub, now); verrs != nil {
		return nil, verrs
	}

	resp := &entity.FormResponse{ID: uuid.New().String(), FormID: f.ID, IP: in.IP, FormVersion: f.Version, CreatedAt: now}
	if f.CollectName {
		resp.CollectedName = strings.TrimSpace(in.Name)
	}
	if actor != nil {
		userID := actor.UserID
		resp.UserID = &userID
		if f.CollectName {
			if u, err := uc.users.GetByID(ctx, userID); err == nil && u != nil {
				resp.CollectedName = u.FullName()
			}
		}
	}

	var saved []string
	for _, field := range f.Fields {
		if !field.Active {
			continue
		}
		if field.Type == entity.FieldFile {
			for i, up := range in.Files[field.ID] {
				rel := path.Join("formularios", f.ID, resp.ID, fmt.Sprintf("%s_%d_%s", shortID(field.ID), i+1, safeFileName(up.FileName)))
				if err := uc.storage.Save(ctx, rel, bytes.NewReader(up.Data)); err != nil {
					uc.removeFiles(saved)
					return nil, err
				}
				saved = append(saved, rel)
				resp.Values = append(resp.Values, entity.FormValue{ID: uuid.New().String(), FieldID: field.ID, FilePath: rel, FileName: up.FileName})
			}
			continue
		}
		if text := form.StoredValue(&field, sub); strings.TrimSpace(text) != "" {
			resp.Values = append(resp.Values, entity.FormValue{ID: uuid.New().String(), FieldID: field.ID, Text: text})
		}
	}

	err = uc.tx.Run(ctx, func(r ports.TxRepos) error {
		if f.ResponseLimit > 0 {
			n, err := r.Forms.CountResponses(ctx, f.ID)
			if err != nil {
				return err
			}
			if n >= f.ResponseLimit {
				return &form.ValidationErrors{Global: []string{"O limite de respostas foi atingido."}}
			}
		}
		if err := r.Forms.CreateResponse(ctx, resp); err != nil {
			return err
		}
		if resp.UserID == nil {
			return nil
		}
		return r.Forms.UpsertUserState(ctx, &entity.FormUserState{FormID: f.ID, UserID: *resp.UserID, LastAnsweredAt: &now})
	})
	if err != nil {
		uc.removeFiles(saved)
		return nil, err
	}
	return &dto.SubmitResponse{ResponseID: resp.ID, FormVersion: resp.FormVersion}, nil
}

// ListResponses respuestas paginadas.
func (uc *FormUseCase) ListResponses(ctx context.Context, actor dto.Principal, formID string, page dto.PageRequest) (*dto.AnswerListResponse, error) {
	if _, err := uc.viewable(ctx, actor, formID); err != nil {
		return nil, err
	}
	page.DefaultPage()
	list, total, err := uc.repo.ListResponses(ctx, formID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.AnswerListResponse{Items: make([]dto.AnswerResponse, 0, len(list)), Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total}}
	for _, r := range list {
		a := dto.AnswerResponse{ID: r.ID, UserID: r.UserID, IP: r.IP, FormVersion: r.FormVersion, CollectedName: r.CollectedName, CreatedAt: r.CreatedAt}
		for _, v := range r.Values {
			a.Values = append(a.Values, dto.AnswerValue{FieldID: v.FieldID, Text: v.Text, FileName: v.FileName})
		}
		out.Items = append(out.Items, a)
	}
	return out, nil
}

func (uc *FormUseCase) allResponses(ctx context.Context, formID string) ([]*entity.FormResponse, error) {
	const pageSize = 500
	var all []*entity.FormResponse
	for offset := 0; ; offset += pageSize {
		list, _, err := uc.repo.ListResponses(ctx, formID, pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, list...)
		if len(list) < pageSize {
			return all, nil
		}
	}
}

// ExportCSV todas las respuestas, una columna por pregunta (incluye inactivas).
func (uc *FormUseCase) ExportCSV(ctx context.Context, actor dto.Principal, formID string) ([]byte, string, error) {
	f, err := uc.viewable(ctx, actor, formID)
	if err != nil {
		return nil, "", err
	}
	responses, err := uc.allResponses(ctx, formID)
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	buf.WriteString("\ufeff") // BOM para Excel
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	header := []string{"Data", "Usuário", "Nome", "Versão", "IP"}
	for _, fl := range f.Fields {
		header = append(header, fl.Label)
	}
	if err := w.Write(header); err != nil {
		return nil, "", err
	}
	names := uc.usernames(ctx, responses)
	for _, r := range responses {
		byField := map[string][]string{}
		for _, v := range r.Values {
			val := v.Text
			if v.FilePath != "" {
				val = v.FileName
			}
			byField[v.FieldID] = append(byField[v.FieldID], val)
		}
		user := ""
		if r.UserID != nil {
			user = names[*r.UserID]
		}
		row := []string{r.CreatedAt.Format("02/01/2006 15:04"), user, r.CollectedName, strconv.Itoa(r.FormVersion), r.IP}
		for _, fl := range f.Fields {
			row = append(row, strings.Join(byField[fl.ID], " | "))
		}
		if err := w.Write(row); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), exportName(f, "csv"), nil
}

// ExportFiles ZIP con los archivos subidos, en carpetas por respuesta.
func (uc *FormUseCase) ExportFiles(ctx context.Context, actor dto.Principal, formID string) ([]byte, string, error) {
	f, err := uc.viewable(ctx, actor, formID)
	if err != nil {
		return nil, "", err
	}
	responses, err := uc.allResponses(ctx, formID)
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := 0
	for i, r := range responses {
		for _, v := range r.Values {
			if v.FilePath == "" {
				continue
			}
			data, err := uc.storage.ReadAll(v.FilePath)
			if err != nil {
				uc.log.Warn().Err(err).Str("path", v.FilePath).Msg("archivo de respuesta ausente")
				continue
			}
			name := fmt.Sprintf("resposta_%04d_%s/%s", i+1, r.CreatedAt.Format("20060102_1504"), safeFileName(v.FileName))
			fw, err := zw.Create(name)
			if err != nil {
				return nil, "", err
			}
			if _, err := fw.Write(data); err != nil {
				return nil, "", err
			}
			files++
		}
	}
	if err := zw.Close(); err != nil {
		return nil, "", err
	}
	if files == 0 {
		return nil, "", fmt.Errorf("%w: nenhum arquivo enviado", domain.ErrNotFound)
	}
	return buf.Bytes(), exportName(f, "zip"), nil
}

// ExportPDF resumen de las respuestas en PDF.
func (uc *FormUseCase) ExportPDF(ctx context.Context, actor dto.Principal, formID string) ([]byte, string, error) {
	f, err := uc.viewable(ctx, actor, formID)
	if err != nil {
		return nil, "", err
	}
	responses, err := uc.allResponses(ctx, formID)
	if err != nil {
		return nil, "", err
	}
	data, err := uc.reports.FormResponses(f, responses)
	if err != nil {
		return nil, "", err
	}
	return data, exportName(f, "pdf"), nil
}

// HomeFeed formularios a exibir na home do usuário.
func (uc *FormUseCase) HomeFeed(ctx context.Context, actor dto.Principal) ([]dto.HomeFormResponse, error) {
	candidates, err := uc.repo.ListHomeCandidates(ctx)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	out := []dto.HomeFormResponse{}
	for _, f := range candidates {
		if !f.Public && !actor.Can(entity.PermAnswerForm) {
			continue
		}
		state, err := uc.repo.GetUserState(ctx, f.ID, actor.UserID)
		if err != nil {
			return nil, err
		}
		if form.ShouldShowOnHome(f, actor.UserID, state, now) {
			out = append(out, dto.HomeFormResponse{ID: f.ID, Title: f.Title, Description: f.Description})
		}
	}
	return out, nil
}

// Dismiss oculta el formulario de la home del usuario.
func (uc *FormUseCase) Dismiss(ctx context.Context, actor dto.Principal, formID string) error {
	if _, err := uc.mustGet(ctx, formID); err != nil {
		return err
	}
	state, err := uc.repo.GetUserState(ctx, formID, actor.UserID)
	if err != nil {
		return err
	}
	if state == nil {
		state = &entity.FormUserState{FormID: formID, UserID: actor.UserID}
	}
	state.Dismissed = true
	return uc.repo.UpsertUserState(ctx, state)
}

func canAnswer(f *entity.Form, actor *dto.Principal) error {
	if f.Public {
		return nil
	}
	if actor == nil {
		return domain.ErrUnauthorized
	}
	if !actor.Can(entity.PermAnswerForm) && f.OwnerID != actor.UserID {
		return domain.ErrForbidden
	}
	return nil
}

func (uc *FormUseCase) editable(ctx context.Context, actor dto.Principal, id string) (*entity.Form, error) {
	f, err := uc.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.OwnerID == actor.UserID || actor.Can(entity.PermManageForms) {
		return f, nil
	}
	c, err := uc.repo.GetCollaborator(ctx, id, actor.UserID)
	if err != nil {
		return nil, err
	}
	if c == nil || !c.CanEdit {
		return nil, domain.ErrForbidden
	}
	return f, nil
}

func (uc *FormUseCase) viewable(ctx context.Context, actor dto.Principal, id string) (*entity.Form, error) {
	f, err := uc.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.OwnerID == actor.UserID || actor.Can(entity.PermManageForms) {
		return f, nil
	}
	c, err := uc.repo.GetCollaborator(ctx, id, actor.UserID)
	if err != nil {
		return nil, err
	}
	if c == nil || !(c.CanView || c.CanEdit) {
		return nil, domain.ErrForbidden
	}
	return f, nil
}

func (uc *FormUseCase) mustGet(ctx context.Context, id string) (*entity.Form, error) {
	f, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, domain.ErrNotFound
	}
	return f, nil
}

func (uc *FormUseCase) usernames(ctx context.Context, responses []*entity.FormResponse) map[string]string {
	out := map[string]string{}
	for _, r := range responses {
		if r.UserID == nil {
			continue
		}
		if _, ok := out[*r.UserID]; ok {
			continue
		}
		out[*r.UserID] = ""
		if u, err := uc.users.GetByID(ctx, *r.UserID); err == nil && u != nil {
			out[*r.UserID] = u.Username
		}
	}
	return out
}

func (uc *FormUseCase) removeFiles(rels []string) {
	for _, rel := range rels {
		if err := uc.storage.Remove(rel); err != nil {
			uc.log.Warn().Err(err).Str("path", rel).Msg("no se pudo borrar el archivo")
		}
	}
}

func (uc *FormUseCase) toResponse(f *entity.Form) *dto.FormResponse {
	resp := &dto.FormResponse{
		ID:                 f.ID,
		Title:              f.Title,
		Description:        f.Description,
		OwnerID:            f.OwnerID,
		Public:             f.Public,
		OpensAt:            f.OpensAt,
		ClosesAt:           f.ClosesAt,
		ResponseLimit:      f.ResponseLimit,
		Version:            f.Version,
		AcceptingResponses: f.AcceptingResponses,
		ShowOnHome:         f.ShowOnHome,
		CollectName:        f.CollectName,
		RepeatEveryMinutes: f.RepeatEveryMinutes,
		Target:             f.Target,
		TargetUsers:        f.TargetUsers,
		ResponseCount:      f.ResponseCount,
		Unavailable:        form.Unavailability(f, f.ResponseCount, uc.now()),
		Fields:             make([]dto.FieldResponse, 0, len(f.Fields)),
	}
	for _, fl := range f.Fields {
		resp.Fields = append(resp.Fields, dto.FieldResponse{
			ID:         fl.ID,
			Label:      fl.Label,
			Help:       fl.Help,
			Type:       fl.Type,
			Order:      fl.Order,
			Required:   fl.Required,
			Options:    fl.Options,
			Validation: fl.Validation,
			Active:     fl.Active,
		})
	}
	return resp
}

func exportName(f *entity.Form, ext string) string {
	slug := textutil.Slugify(f.Title)
	if slug == "" {
		slug = "formulario"
	}
	return fmt.Sprintf("%s_respostas.%s", slug, ext)
}

// safeFileName nombre de archivo sin rutas ni caracteres problemáticos, conservando la extensión.
func safeFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(base))
	stem := textutil.Slugify(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		stem = "arquivo"
	}
	return stem + ext
}
