package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
	"github.com/jhoicas/portal-intranet/pkg/logger"
)

// BIUseCase registro de relatórios Power BI, embed, refresh e visões salvas.
type BIUseCase struct {
	repo    repository.BIRepository
	users   repository.UserRepository
	pbi     ports.PowerBIClient
	locker  ports.KeyLocker
	baseURL string
	log     *logger.Logger
	now     func() time.Time
}

// NewBIUseCase construye el caso de uso.
func NewBIUseCase(repo repository.BIRepository, users repository.UserRepository, pbi ports.PowerBIClient, locker ports.KeyLocker, baseURL string, log *logger.Logger) *BIUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &BIUseCase{
		repo:    repo,
		users:   users,
		pbi:     pbi,
		locker:  locker,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.Named("bi"),
		now:     time.Now,
	}
}

// CreateReport registra un relatório; workspace y report se extraen del embed si faltan.
func (uc *BIUseCase) CreateReport(ctx context.Context, in dto.BIReportRequest) (*dto.BIReportResponse, error) {
	now := uc.now()
	r := &entity.BIReport{ID: uuid.New().String(), CreatedAt: now}
	if err := applyReportRequest(r, in); err != nil {
		return nil, err
	}
	r.UpdatedAt = now
	if err := uc.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	return reportToResponse(r), nil
}

// UpdateReport edita un relatório.
func (uc *BIUseCase) UpdateReport(ctx context.Context, id string, in dto.BIReportRequest) (*dto.BIReportResponse, error) {
	r, err := uc.mustGetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyReportRequest(r, in); err != nil {
		return nil, err
	}
	r.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return reportToResponse(r), nil
}

// DeleteReport elimina el relatório con sus accesos y visões.
func (uc *BIUseCase) DeleteReport(ctx context.Context, id string) error {
	if _, err := uc.mustGetReport(ctx, id); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, id)
}

func applyReportRequest(r *entity.BIReport, in dto.BIReportRequest) error {
	r.Title = strings.TrimSpace(in.Title)
	r.EmbedCode = strings.TrimSpace(in.EmbedCode)
	ws, rep := strings.ToLower(strings.TrimSpace(in.WorkspaceID)), strings.ToLower(strings.TrimSpace(in.ReportID))
	if ws == "" || rep == "" {
		pws, prep := entity.ParseEmbedIDs(r.EmbedCode)
		if ws == "" {
			ws = pws
		}
		if rep == "" {
			rep = prep
		}
	}
	if ws == "" || rep == "" {
		return fmt.Errorf("%w: não foi possível identificar workspace e relatório no embed", domain.ErrInvalidInput)
	}
	r.WorkspaceID, r.ReportID = ws, rep
	r.DatasetID = strings.ToLower(strings.TrimSpace(in.DatasetID))
	r.AllUsers = in.AllUsers
	r.AllowedUsers = dedupe(in.AllowedUsers)
	r.AllowedGroups = dedupe(in.AllowedGroups)
	return nil
}

// ListAll todos los relatórios (gestión).
func (uc *BIUseCase) ListAll(ctx context.Context) ([]dto.BIReportResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return reportsToResponse(list), nil
}

// ListForUser relatórios visibles: todos, usuário listado o algún grupo del usuário; superuser ve todo.
func (uc *BIUseCase) ListForUser(ctx context.Context, actor dto.Principal) ([]dto.BIReportResponse, error) {
	if actor.IsSuperuser() {
		return uc.ListAll(ctx)
	}
	groups, err := uc.users.GroupIDs(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	list, err := uc.repo.ListForUser(ctx, actor.UserID, groups)
	if err != nil {
		return nil, err
	}
	return reportsToResponse(list), nil
}

// Embed verifica el acceso, registra la apertura y devuelve URL + embed token.
func (uc *BIUseCase) Embed(ctx context.Context, actor dto.Principal, reportID string) (*dto.BIEmbedResponse, error) {
	r, err := uc.accessibleReport(ctx, actor, reportID)
	if err != nil {
		return nil, err
	}
	access := &entity.BIAccess{ID: uuid.New().String(), ReportID: r.ID, UserID: actor.UserID, Username: actor.Username, At: uc.now()}
	if err := uc.repo.LogAccess(ctx, access); err != nil {
		uc.log.Warn().Err(err).Str("report_id", r.ID).Msg("no se pudo registrar el acceso")
	}
	if err := uc.powerBI(); err != nil {
		return nil, err
	}
	info, err := uc.pbi.EmbedToken(ctx, r.WorkspaceID, r.ReportID)
	if err != nil {
		uc.log.Error().Err(err).Str("report_id", r.ID).Msg("falla al generar embed token")
		return nil, err
	}
	if r.DatasetID == "" && info.DatasetID != "" {
		r.DatasetID = strings.ToLower(info.DatasetID)
		r.UpdatedAt = uc.now()
		if err := uc.repo.Update(ctx, r); err != nil {
			uc.log.Warn().Err(err).Str("report_id", r.ID).Msg("no se pudo guardar el dataset")
		}
	}
	return &dto.BIEmbedResponse{ReportID: r.ReportID, EmbedURL: info.EmbedURL, Token: info.Token, ExpiresAt: info.ExpiresAt}, nil
}

// LastRefresh consulta el último refresh Completed y lo guarda en LastUpdated.
func (uc *BIUseCase) LastRefresh(ctx context.Context, actor dto.Principal, reportID string) (*dto.BIRefreshResponse, error) {
	r, err := uc.accessibleReport(ctx, actor, reportID)
	if err != nil {
		return nil, err
	}
	at, err := uc.refreshLastUpdated(ctx, r)
	if err != nil {
		return nil, err
	}
	return &dto.BIRefreshResponse{ReportID: r.ID, LastUpdated: at}, nil
}

func (uc *BIUseCase) refreshLastUpdated(ctx context.Context, r *entity.BIReport) (*time.Time, error) {
	datasetID, err := uc.datasetID(ctx, r)
	if err != nil {
		return nil, err
	}
	at, err := uc.pbi.LastRefresh(ctx, r.WorkspaceID, datasetID)
	if err != nil {
		return nil, err
	}
	if at == nil {
		return r.LastUpdated, nil
	}
	if r.LastUpdated == nil || !r.LastUpdated.Equal(*at) {
		if err := uc.repo.SetLastUpdated(ctx, r.ID, *at); err != nil {
			return nil, err
		}
		r.LastUpdated = at
	}
	return at, nil
}

func (uc *BIUseCase) powerBI() error {
	if uc.pbi == nil {
		return fmt.Errorf("%w: Power BI", domain.ErrNotConfigured)
	}
	return nil
}

func (uc *BIUseCase) datasetID(ctx context.Context, r *entity.BIReport) (string, error) {
	if err := uc.powerBI(); err != nil {
		return "", err
	}
	if r.DatasetID != "" {
		return r.DatasetID, nil
	}
	id, err := uc.pbi.DatasetID(ctx, r.WorkspaceID, r.ReportID)
	if err != nil {
		return "", err
	}
	r.DatasetID = strings.ToLower(id)
	r.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, r); err != nil {
		return "", err
	}
	return r.DatasetID, nil
}

// TriggerRefresh dispara un refresh Full. Un segundo pedido dentro de la ventana del lock da ErrConflict.
func (uc *BIUseCase) TriggerRefresh(ctx context.Context, actor dto.Principal, reportID string) error {
	r, err := uc.accessibleReport(ctx, actor, reportID)
	if err != nil {
		return err
	}
	if !uc.locker.TryLock("pbi:refresh:" + r.ID) {
		return fmt.Errorf("%w: atualização já solicitada recentemente", domain.ErrConflict)
	}
	datasetID, err := uc.datasetID(ctx, r)
	if err != nil {
		return err
	}
	if err := uc.pbi.TriggerRefresh(ctx, r.WorkspaceID, datasetID); err != nil {
		return err
	}
	uc.log.Info().Str("report_id", r.ID).Str("dataset_id", datasetID).Str("actor", actor.Username).Msg("refresh de dataset solicitado")
	return nil
}

// PollAll actualiza LastUpdated de todos los relatórios; devuelve cuántos cambiaron y los errores.
func (uc *BIUseCase) PollAll(ctx context.Context) (int, []string, error) {
	if err := uc.powerBI(); err != nil {
		return 0, nil, err
	}
	list, err := uc.repo.List(ctx)
	if err != nil {
		return 0, nil, err
	}
	updated := 0
	var errs []string
	for _, r := range list {
		if ctx.Err() != nil {
			return updated, errs, ctx.Err()
		}
		before := r.LastUpdated
		at, err := uc.refreshLastUpdated(ctx, r)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", r.Title, err))
			continue
		}
		if at != nil && (before == nil || !before.Equal(*at)) {
			updated++
		}
	}
	return updated, errs, nil
}

// ListAccesses aberturas do relatório.
func (uc *BIUseCase) ListAccesses(ctx context.Context, reportID string) ([]dto.BIAccessResponse, error) {
	if _, err := uc.mustGetReport(ctx, reportID); err != nil {
		return nil, err
	}
	list, err := uc.repo.ListAccesses(ctx, reportID, 1000)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BIAccessResponse, 0, len(list))
	for _, a := range list {
		out = append(out, dto.BIAccessResponse{UserID: a.UserID, Username: a.Username, At: a.At})
	}
	return out, nil
}

// CreateView guarda el estado actual como visão; is_default desmarca las otras del dono.
func (uc *BIUseCase) CreateView(ctx context.Context, actor dto.Principal, reportID string, in dto.SavedViewRequest) (*dto.SavedViewResponse, error) {
	r, err := uc.accessibleReport(ctx, actor, reportID)
	if err != nil {
		return nil, err
	}
	if !json.Valid(in.State) {
		return nil, fmt.Errorf("%w: estado inválido", domain.ErrInvalidInput)
	}
	now := uc.now()
	v := &entity.BISavedView{
		ID:        uuid.New().String(),
		ReportID:  r.ID,
		OwnerID:   actor.UserID,
		Name:      strings.TrimSpace(in.Name),
		State:     in.State,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.CreateView(ctx, v); err != nil {
		return nil, err
	}
	if in.IsDefault {
		if err := uc.repo.SetDefaultView(ctx, r.ID, actor.UserID, v.ID); err != nil {
			return nil, err
		}
		v.IsDefault = true
	}
	return viewToResponse(v), nil
}

// ListViews visões do usuário para o relatório.
func (uc *BIUseCase) ListViews(ctx context.Context, actor dto.Principal, reportID string) ([]dto.SavedViewResponse, error) {
	if _, err := uc.accessibleReport(ctx, actor, reportID); err != nil {
		return nil, err
	}
	list, err := uc.repo.ListViews(ctx, reportID, actor.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SavedViewResponse, 0, len(list))
	for _, v := range list {
		out = append(out, *viewToResponse(v))
	}
	return out, nil
}

// DeleteView borra una visão propia (o cualquiera con manage_saved_views).
func (uc *BIUseCase) DeleteView(ctx context.Context, actor dto.Principal, viewID string) error {
	if _, err := uc.ownView(ctx, actor, viewID); err != nil {
		return err
	}
	return uc.repo.DeleteView(ctx, viewID)
}

// SetDefaultView marca la visão como padrão del dono.
func (uc *BIUseCase) SetDefaultView(ctx context.Context, actor dto.Principal, viewID string) error {
	v, err := uc.ownView(ctx, actor, viewID)
	if err != nil {
		return err
	}
	return uc.repo.SetDefaultView(ctx, v.ReportID, v.OwnerID, v.ID)
}

// ShareView genera (o reutiliza) el token de compartilhamento.
func (uc *BIUseCase) ShareView(ctx context.Context, actor dto.Principal, viewID string) (*dto.SavedViewResponse, error) {
	v, err := uc.ownView(ctx, actor, viewID)
	if err != nil {
		return nil, err
	}
	if v.ShareToken == nil {
		token := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
		if err := uc.repo.SetShareToken(ctx, v.ID, &token); err != nil {
			return nil, err
		}
		v.ShareToken = &token
	}
	return viewToResponse(v), nil
}

// UnshareView revoga o link.
func (uc *BIUseCase) UnshareView(ctx context.Context, actor dto.Principal, viewID string) error {
	if _, err := uc.ownView(ctx, actor, viewID); err != nil {
		return err
	}
	return uc.repo.SetShareToken(ctx, viewID, nil)
}

// SharedView resuelve un token; el usuario debe tener acceso al relatório.
func (uc *BIUseCase) SharedView(ctx context.Context, actor dto.Principal, token string) (*dto.SavedViewResponse, error) {
	v, err := uc.repo.GetViewByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domain.ErrNotFound
	}
	if _, err := uc.accessibleReport(ctx, actor, v.ReportID); err != nil {
		return nil, err
	}
	return viewToResponse(v), nil
}

// ShareQR PNG con el QR del link compartilhado.
func (uc *BIUseCase) ShareQR(ctx context.Context, actor dto.Principal, viewID string) ([]byte, error) {
	v, err := uc.ShareView(ctx, actor, viewID)
	if err != nil {
		return nil, err
	}
	link := fmt.Sprintf("%s/bi/%s?view=%s", uc.baseURL, v.ReportID, *v.ShareToken)
	return qrcode.Encode(link, qrcode.Medium, 256)
}

func (uc *BIUseCase) ownView(ctx context.Context, actor dto.Principal, viewID string) (*entity.BISavedView, error) {
	v, err := uc.repo.GetView(ctx, viewID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domain.ErrNotFound
	}
	if v.OwnerID != actor.UserID && !actor.Can(entity.PermManageSavedViews) {
		return nil, domain.ErrForbidden
	}
	return v, nil
}

func (uc *BIUseCase) accessibleReport(ctx context.Context, actor dto.Principal, id string) (*entity.BIReport, error) {
	r, err := uc.mustGetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Can(entity.PermEditBI) {
		return r, nil
	}
	groups, err := uc.users.GroupIDs(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !r.CanAccess(actor.UserID, groups) {
		uc.log.Warn().Str("username", actor.Username).Str("report_id", r.ID).Msg("acceso denegado al relatório")
		return nil, domain.ErrForbidden
	}
	return r, nil
}

func (uc *BIUseCase) mustGetReport(ctx context.Context, id string) (*entity.BIReport, error) {
	r, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func reportsToResponse(list []*entity.BIReport) []dto.BIReportResponse {
	out := make([]dto.BIReportResponse, 0, len(list))
	for _, r := range list {
		out = append(out, *reportToResponse(r))
	}
	return out
}

func reportToResponse(r *entity.BIReport) *dto.BIReportResponse {
	return &dto.BIReportResponse{
		ID:            r.ID,
		Title:         r.Title,
		WorkspaceID:   r.WorkspaceID,
		ReportID:      r.ReportID,
		DatasetID:     r.DatasetID,
		AllUsers:      r.AllUsers,
		AllowedUsers:  r.AllowedUsers,
		AllowedGroups: r.AllowedGroups,
		LastUpdated:   r.LastUpdated,
		NextUpdate:    r.NextUpdate,
	}
}

func viewToResponse(v *entity.BISavedView) *dto.SavedViewResponse {
	return &dto.SavedViewResponse{
		ID:         v.ID,
		ReportID:   v.ReportID,
		Name:       v.Name,
		State:      json.RawMessage(v.State),
		IsDefault:  v.IsDefault,
		ShareToken: v.ShareToken,
		UpdatedAt:  v.UpdatedAt,
	}
}
