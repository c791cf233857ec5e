package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/altforce"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
	"github.com/jhoicas/portal-intranet/internal/domain/syncwindow"
	"github.com/jhoicas/portal-intranet/pkg/logger"
)

// Recursos de la API AltForce.
const (
	ResourceOrders    = "orders"
	ResourceBudgets   = "budgets"
	ResourceLeads     = "leads"
	ResourceCustomers = "customers"
)

// WindowedResources recursos consultados por ventana de tiempo, en el orden de sync_all.
var WindowedResources = []string{ResourceOrders, ResourceBudgets, ResourceLeads}

// AltForceSyncConfig parámetros de las ventanas.
type AltForceSyncConfig struct {
	DefaultDays  int
	ChunkDays    int
	Overlap      time.Duration
	Pause        time.Duration
	BackfillDays int
	MaxWindows   int
}

// AltForceSyncUseCase jobs de sincronización con AltForce.
type AltForceSyncUseCase struct {
	client  ports.AltForceClient
	repo    repository.AltForceRepository
	metrics ports.SyncMetrics
	cfg     AltForceSyncConfig
	log     *logger.Logger
	now     func() time.Time
}

// NewAltForceSyncUseCase construye los jobs. client nil = integración no configurada.
func NewAltForceSyncUseCase(client ports.AltForceClient, repo repository.AltForceRepository, metrics ports.SyncMetrics, cfg AltForceSyncConfig, log *logger.Logger) *AltForceSyncUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = 30
	}
	if cfg.BackfillDays <= 0 {
		cfg.BackfillDays = 730
	}
	return &AltForceSyncUseCase{client: client, repo: repo, metrics: metrics, cfg: cfg, log: log.Named("altforce_sync"), now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (uc *AltForceSyncUseCase) WithClock(now func() time.Time) *AltForceSyncUseCase {
	uc.now = now
	return uc
}

// SyncResource sincroniza los últimos days días del recurso (days<=0 = default).
func (uc *AltForceSyncUseCase) SyncResource(ctx context.Context, resource string, days int) (syncwindow.Totals, error) {
	if days <= 0 {
		days = uc.cfg.DefaultDays
	}
	from, to := syncwindow.LastDays(uc.now(), days)
	return uc.loop(ctx, resource, from, to)
}

// Backfill recarga el histórico del recurso desde la medianoche de hoy - days.
func (uc *AltForceSyncUseCase) Backfill(ctx context.Context, resource string, days int) (syncwindow.Totals, error) {
	if days <= 0 {
		days = uc.cfg.BackfillDays
	}
	from, to := syncwindow.BackfillRange(uc.now(), days)
	return uc.loop(ctx, resource, from, to)
}

func (uc *AltForceSyncUseCase) loop(ctx context.Context, resource string, from, to time.Time) (syncwindow.Totals, error) {
	if uc.client == nil {
		return syncwindow.Totals{}, fmt.Errorf("%w: AltForce", domain.ErrNotConfigured)
	}
	if !isWindowed(resource) {
		return syncwindow.Totals{}, fmt.Errorf("%w: recurso %q", domain.ErrInvalidInput, resource)
	}
	opts := syncwindow.Options{From: from, To: to, ChunkDays: uc.cfg.ChunkDays, Overlap: uc.cfg.Overlap, Pause: uc.cfg.Pause, MaxWindows: uc.cfg.MaxWindows}
	t := syncwindow.Loop(ctx, opts, func(ctx context.Context, w syncwindow.Window) (syncwindow.Summary, error) {
		records, err := uc.client.FetchWindow(ctx, resource, w.Start, w.End)
		if err != nil {
			uc.log.Warn().Err(err).Str("resource", resource).Time("start", w.Start).Time("end", w.End).Msg("janela falhou")
			return syncwindow.Summary{}, fmt.Errorf("%s %s..%s: %w", resource, w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339), err)
		}
		sum := uc.upsertAll(ctx, resource, records)
		if uc.metrics != nil {
			uc.metrics.ObserveWindow(resource)
		}
		uc.log.Debug().
			Str("resource", resource).
			Time("start", w.Start).
			Time("end", w.End).
			Int("count", sum.Count).
			Int("created", sum.Created).
			Int("updated", sum.Updated).
			Int("errors", len(sum.Errors)).
			Msg("janela sincronizada")
		return sum, nil
	})
	uc.observe(resource, t.Received, t.Created, t.Updated, t.Errors)
	uc.log.Info().
		Str("resource", resource).
		Int("windows", t.Windows).
		Int("received", t.Received).
		Int("created", t.Created).
		Int("updated", t.Updated).
		Int("errors", t.Errors).
		Str("stopped", t.Stopped).
		Msg("sincronização concluída")
	return t, ctx.Err()
}

// SyncCustomers carga completa de clientes (sin ventana).
func (uc *AltForceSyncUseCase) SyncCustomers(ctx context.Context) (syncwindow.Summary, error) {
	if uc.client == nil {
		return syncwindow.Summary{}, fmt.Errorf("%w: AltForce", domain.ErrNotConfigured)
	}
	records, err := uc.client.FetchAll(ctx, ResourceCustomers)
	if err != nil {
		return syncwindow.Summary{}, err
	}
	sum := uc.upsertAll(ctx, ResourceCustomers, records)
	uc.observe(ResourceCustomers, sum.Count, sum.Created, sum.Updated, len(sum.Errors))
	uc.log.Info().Int("count", sum.Count).Int("created", sum.Created).Int("updated", sum.Updated).Int("errors", len(sum.Errors)).Msg("clientes sincronizados")
	return sum, nil
}

// SyncAll pedidos, orçamentos e leads dos últimos days dias. Las ventanas o registros con falla
// quedan en los Totals del recurso y no impiden los demás; sólo la cancelación o la falta de
// configuración cortan el recorrido.
func (uc *AltForceSyncUseCase) SyncAll(ctx context.Context, days int) (map[string]syncwindow.Totals, error) {
	out := make(map[string]syncwindow.Totals, len(WindowedResources))
	for _, res := range WindowedResources {
		t, err := uc.SyncResource(ctx, res, days)
		out[res] = t
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// Run ejecución manual desde la API. Si algún recurso terminó con ventanas o registros fallidos,
// o cortado antes del final, devuelve los resultados junto con ErrPartialSync.
func (uc *AltForceSyncUseCase) Run(ctx context.Context, in dto.SyncRequest) ([]dto.SyncResponse, error) {
	resource := in.Resource
	if resource == "" {
		resource = "all"
	}
	switch {
	case resource == ResourceCustomers:
		sum, err := uc.SyncCustomers(ctx)
		if err != nil {
			return nil, err
		}
		out := []dto.SyncResponse{{Resource: resource, Received: sum.Count, Created: sum.Created, Updated: sum.Updated, Errors: sum.Errors}}
		return out, partialSync(out)
	case resource == "all":
		if in.Backfill {
			return nil, fmt.Errorf("%w: backfill exige um recurso", domain.ErrInvalidInput)
		}
		all, err := uc.SyncAll(ctx, in.Days)
		out := make([]dto.SyncResponse, 0, len(all))
		for _, res := range WindowedResources {
			if t, ok := all[res]; ok {
				out = append(out, totalsToResponse(res, t))
			}
		}
		if err == nil {
			err = partialSync(out)
		}
		return out, err
	case in.Backfill:
		t, err := uc.Backfill(ctx, resource, in.Days)
		if err != nil && t.Windows == 0 {
			return nil, err
		}
		out := []dto.SyncResponse{totalsToResponse(resource, t)}
		if err == nil {
			err = partialSync(out)
		}
		return out, err
	default:
		t, err := uc.SyncResource(ctx, resource, in.Days)
		if err != nil && t.Windows == 0 {
			return nil, err
		}
		out := []dto.SyncResponse{totalsToResponse(resource, t)}
		if err == nil {
			err = partialSync(out)
		}
		return out, err
	}
}

func (uc *AltForceSyncUseCase) upsertAll(ctx context.Context, resource string, records []altforce.Record) syncwindow.Summary {
	sum := syncwindow.Summary{Count: len(records)}
	for _, r := range records {
		created, err := uc.upsert(ctx, resource, r)
		if err != nil {
			id, _ := altforce.UpstreamID(r)
			sum.Errors = append(sum.Errors, fmt.Sprintf("%s %s: %v", resource, id, err))
			continue
		}
		if created {
			sum.Created++
		} else {
			sum.Updated++
		}
	}
	return sum
}

func (uc *AltForceSyncUseCase) upsert(ctx context.Context, resource string, r altforce.Record) (bool, error) {
	switch resource {
	case ResourceOrders:
		o, err := altforce.ParseOrder(r)
		if err != nil {
			return false, err
		}
		return uc.repo.UpsertOrder(ctx, o)
	case ResourceBudgets:
		b, err := altforce.ParseBudget(r)
		if err != nil {
			return false, err
		}
		return uc.repo.UpsertBudget(ctx, b)
	case ResourceLeads:
		l, err := altforce.ParseLead(r)
		if err != nil {
			return false, err
		}
		return uc.repo.UpsertLead(ctx, l)
	case ResourceCustomers:
		c, err := altforce.ParseCustomer(r)
		if err != nil {
			return false, err
		}
		return uc.repo.UpsertCustomer(ctx, c)
	}
	return false, fmt.Errorf("recurso %q desconhecido", resource)
}

func (uc *AltForceSyncUseCase) observe(job string, received, created, updated, errs int) {
	if uc.metrics != nil {
		uc.metrics.ObserveSync(job, received, created, updated, errs)
	}
}

func isWindowed(resource string) bool {
	for _, r := range WindowedResources {
		if r == resource {
			return true
		}
	}
	return false
}

// partialSync ErrPartialSync con los recursos que tuvieron fallas o cortes.
func partialSync(out []dto.SyncResponse) error {
	var failed []string
	for _, r := range out {
		if len(r.Errors) > 0 || r.Stopped != "" {
			failed = append(failed, r.Resource)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrPartialSync, strings.Join(failed, ", "))
}

func totalsToResponse(resource string, t syncwindow.Totals) dto.SyncResponse {
	return dto.SyncResponse{
		Resource: resource,
		Windows:  t.Windows,
		Received: t.Received,
		Created:  t.Created,
		Updated:  t.Updated,
		Errors:   t.Messages,
		Stopped:  t.Stopped,
	}
}
