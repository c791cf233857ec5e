package usecase

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
	"github.com/jhoicas/portal-intranet/internal/domain/syncwindow"
	"github.com/jhoicas/portal-intranet/pkg/logger"
)

// EPIUseCase entregas de EPI: sincronización con la API de RH, listado, baixa/reversão
// frente al ERP e importación del CSV exportado por el ERP.
type EPIUseCase struct {
	repo    repository.EPIRepository
	hr      ports.HRClient
	tx      ports.TxRunner
	reports ports.ReportRenderer
	metrics ports.SyncMetrics
	log     *logger.Logger
	now     func() time.Time
}

// NewEPIUseCase construye el caso de uso. hr puede ser nil si la API de RH no está configurada.
func NewEPIUseCase(repo repository.EPIRepository, hr ports.HRClient, tx ports.TxRunner, reports ports.ReportRenderer, log *logger.Logger) *EPIUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &EPIUseCase{repo: repo, hr: hr, tx: tx, reports: reports, log: log.Named("rh"), now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (uc *EPIUseCase) WithClock(now func() time.Time) *EPIUseCase {
	uc.now = now
	return uc
}

// WithMetrics registra los resultados de Sync.
func (uc *EPIUseCase) WithMetrics(m ports.SyncMetrics) *EPIUseCase {
	uc.metrics = m
	return uc
}

// Sync importa todas las entregas de la API de RH, completando colaborador y centro de
// costo por contrato (consultado una vez por ejecución). Un registro inválido no aborta el job.
func (uc *EPIUseCase) Sync(ctx context.Context) (syncwindow.Summary, error) {
	var sum syncwindow.Summary
	if uc.hr == nil {
		return sum, fmt.Errorf("%w: API de RH", domain.ErrNotConfigured)
	}
	rows, err := uc.hr.EPIDeliveries(ctx)
	if err != nil {
		return sum, err
	}
	sum.Count = len(rows)
	if len(rows) == 0 {
		uc.log.Warn().Msg("sync_epi: nenhuma entrega retornada")
		return sum, nil
	}

	descriptions := majorityDescriptions(rows)
	contracts := map[string]ports.ContractInfo{}
	blanks := map[string]int{}
	for _, row := range rows {
		contract := anyStr(row["contrato"])
		info, ok := contracts[contract]
		if !ok && contract != "" {
			info, err = uc.hr.Contract(ctx, contract)
			if err != nil {
				if ctx.Err() != nil {
					return sum, ctx.Err()
				}
				sum.Errors = append(sum.Errors, fmt.Sprintf("contrato %s: %v", contract, err))
			}
			contracts[contract] = info
		}
		d, err := uc.parseDelivery(row, info, descriptions)
		if err != nil {
			sum.Errors = append(sum.Errors, err.Error())
			continue
		}
		if d.EmployeeName == "" {
			blanks["colaborador"]++
		}
		if d.CostCenter == "" {
			blanks["cc"]++
		}
		if d.EPIDescription == "" {
			blanks["desc_epi"]++
		}
		created, err := uc.repo.Upsert(ctx, d)
		if err != nil {
			sum.Errors = append(sum.Errors, fmt.Sprintf("entrega %s/%s/%s: %v", d.Unit, d.Contract, d.EPI, err))
			continue
		}
		if created {
			sum.Created++
		} else {
			sum.Updated++
		}
	}
	uc.log.Info().
		Int("count", sum.Count).
		Int("created", sum.Created).
		Int("updated", sum.Updated).
		Int("errors", len(sum.Errors)).
		Int("sem_colaborador", blanks["colaborador"]).
		Int("sem_cc", blanks["cc"]).
		Int("sem_desc_epi", blanks["desc_epi"]).
		Msg("sync_epi concluído")
	if uc.metrics != nil {
		uc.metrics.ObserveSync("epi", sum.Count, sum.Created, sum.Updated, len(sum.Errors))
	}
	return sum, nil
}

func (uc *EPIUseCase) parseDelivery(row map[string]any, info ports.ContractInfo, descriptions map[string]string) (*entity.EPIDelivery, error) {
	delivered := isoDate(row["dataEntrega"])
	if delivered == nil {
		return nil, fmt.Errorf("entrega sem dataEntrega válida (contrato %s)", anyStr(row["contrato"]))
	}
	contract := anyStr(row["contrato"])
	if contract == "" {
		return nil, fmt.Errorf("entrega sem contrato")
	}
	stock := anyStr(row["codigoEstoque"])
	desc := anyStr(row["descricaoEPI"])
	if desc == "" {
		desc = descriptions[stock]
	}
	qty, _ := strconv.Atoi(anyStr(row["quantidadeEntregue"]))
	raw, _ := json.Marshal(row)
	now := uc.now()
	return &entity.EPIDelivery{
		ID:                    uuid.New().String(),
		Unit:                  anyStr(row["unidade"]),
		Contract:              contract,
		EPI:                   anyStr(row["epi"]),
		StockCode:             stock,
		Lot:                   anyStr(row["lote"]),
		DeliveredAt:           *delivered,
		ReturnedAt:            isoDate(row["dataDevolucao"]),
		Quantity:              qty,
		EmployeeName:          info.Name,
		EPIDescription:        desc,
		CostCenter:            info.CostCenter,
		CostCenterDescription: info.CostCenterDescription,
		Status:                entity.EPIStatusPending,
		Raw:                   raw,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// majorityDescriptions descripción más frecuente por código de estoque, para filas sin descripción.
func majorityDescriptions(rows []map[string]any) map[string]string {
	votes := map[string]map[string]int{}
	for _, r := range rows {
		code, desc := anyStr(r["codigoEstoque"]), anyStr(r["descricaoEPI"])
		if code == "" || desc == "" {
			continue
		}
		if votes[code] == nil {
			votes[code] = map[string]int{}
		}
		votes[code][desc]++
	}
	out := make(map[string]string, len(votes))
	for code, counts := range votes {
		best, bestN := "", 0
		for desc, n := range counts {
			if n > bestN || (n == bestN && desc < best) {
				best, bestN = desc, n
			}
		}
		out[code] = best
	}
	return out
}

// List entregas filtradas. Fechas inválidas se ignoran.
func (uc *EPIUseCase) List(ctx context.Context, in dto.EPIFilterRequest) (*dto.EPIListResponse, error) {
	in.DefaultPage()
	f := entity.EPIFilter{
		Status:    in.Status,
		Unit:      strings.TrimSpace(in.Unit),
		Contract:  strings.TrimSpace(in.Contract),
		StockCode: strings.TrimSpace(in.StockCode),
		Sequence:  strings.TrimSpace(in.Sequence),
		Employee:  strings.TrimSpace(in.Employee),
		From:      uc.filterDate("from", in.From),
		To:        uc.filterDate("to", in.To),
		Limit:     in.Limit,
		Offset:    in.Offset,
	}
	if f.Status == "todos" {
		f.Status = ""
	}
	list, total, err := uc.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &dto.EPIListResponse{Items: make([]dto.EPIDeliveryResponse, 0, len(list)), Page: dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total}}
	for _, d := range list {
		out.Items = append(out.Items, epiToResponse(d))
	}
	return out, nil
}

func (uc *EPIUseCase) filterDate(name, s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		uc.log.Warn().Str(name, s).Msg("fecha de filtro inválida")
		return nil
	}
	return &t
}

// WriteOff baixa en el ERP: sólo las entregas Pendente cambian.
func (uc *EPIUseCase) WriteOff(ctx context.Context, in dto.EPIWriteOffRequest) (int, error) {
	seq := strings.TrimSpace(in.Sequence)
	if seq == "" {
		return 0, fmt.Errorf("%w: sequencial da baixa é obrigatório", domain.ErrInvalidInput)
	}
	if len(in.IDs) == 0 {
		return 0, fmt.Errorf("%w: IDs de entrega ausentes", domain.ErrInvalidInput)
	}
	n, err := uc.repo.WriteOff(ctx, in.IDs, seq, uc.now())
	if err != nil {
		return 0, err
	}
	if n < len(in.IDs) {
		uc.log.Warn().Int("requested", len(in.IDs)).Int("changed", n).Msg("entregas já baixadas ou inexistentes foram ignoradas")
	}
	return n, nil
}

// Revert vuelve a Pendente las entregas Baixado.
func (uc *EPIUseCase) Revert(ctx context.Context, in dto.EPIRevertRequest) (int, error) {
	if len(in.IDs) == 0 {
		return 0, fmt.Errorf("%w: IDs de entrega ausentes", domain.ErrInvalidInput)
	}
	return uc.repo.Revert(ctx, in.IDs)
}

// importColumns columnas del CSV del ERP (cabecera obligatoria, en cualquier orden).
var importColumns = []string{"unidade", "contrato", "epi", "lote", "data_entrega", "sequencial"}

// ImportWriteOffs procesa el CSV (Windows-1252, separado por ';') exportado por el ERP y
// baixa cada entrega por su clave natural, en una sola transacción.
func (uc *EPIUseCase) ImportWriteOffs(ctx context.Context, r io.Reader) (*dto.EPIImportResponse, error) {
	cr := csv.NewReader(charmap.Windows1252.NewDecoder().Reader(r))
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: CSV vazio ou ilegível", domain.ErrInvalidInput)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range importColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: coluna %q ausente", domain.ErrInvalidInput, c)
		}
	}

	out := &dto.EPIImportResponse{}
	now := uc.now()
	err = uc.tx.Run(ctx, func(repos ports.TxRepos) error {
		line := 1
		for {
			rec, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			line++
			if err != nil {
				out.Errors = append(out.Errors, fmt.Sprintf("linha %d: %v", line, err))
				continue
			}
			col := func(name string) string {
				if i := idx[name]; i < len(rec) {
					return strings.TrimSpace(rec[i])
				}
				return ""
			}
			if strings.Join(rec, "") == "" {
				continue
			}
			out.Rows++
			delivered, ok := parseBRDate(col("data_entrega"))
			if !ok {
				out.Errors = append(out.Errors, fmt.Sprintf("linha %d: data de entrega inválida %q", line, col("data_entrega")))
				continue
			}
			seq := col("sequencial")
			if seq == "" {
				out.Errors = append(out.Errors, fmt.Sprintf("linha %d: sequencial vazio", line))
				continue
			}
			found, err := repos.EPI.WriteOffByKey(ctx, col("unidade"), col("contrato"), col("epi"), col("lote"), delivered, seq, now)
			if err != nil {
				return err
			}
			if found {
				out.WrittenOff++
			} else {
				out.NotFound++
			}
		}
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int("rows", out.Rows).Int("written_off", out.WrittenOff).Int("not_found", out.NotFound).Msg("importação de baixas do ERP")
	return out, nil
}

// PendingReport PDF de las entregas pendientes que coinciden con el filtro.
func (uc *EPIUseCase) PendingReport(ctx context.Context, in dto.EPIFilterRequest) ([]byte, error) {
	f := entity.EPIFilter{
		Status:   entity.EPIStatusPending,
		Unit:     strings.TrimSpace(in.Unit),
		Contract: strings.TrimSpace(in.Contract),
		Employee: strings.TrimSpace(in.Employee),
		From:     uc.filterDate("from", in.From),
		To:       uc.filterDate("to", in.To),
		Limit:    10000,
	}
	list, _, err := uc.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.CostCenter != b.CostCenter {
			return a.CostCenter < b.CostCenter
		}
		if !a.DeliveredAt.Equal(b.DeliveredAt) {
			return a.DeliveredAt.Before(b.DeliveredAt)
		}
		return a.StockCode < b.StockCode
	})
	return uc.reports.EPIDeliveries("Entregas de EPI pendentes", list)
}

func epiToResponse(d *entity.EPIDelivery) dto.EPIDeliveryResponse {
	return dto.EPIDeliveryResponse{
		ID:                    d.ID,
		Unit:                  d.Unit,
		Contract:              d.Contract,
		EmployeeName:          d.EmployeeName,
		CostCenter:            d.CostCenter,
		CostCenterDescription: d.CostCenterDescription,
		EPI:                   d.EPI,
		EPIDescription:        d.EPIDescription,
		StockCode:             d.StockCode,
		Lot:                   d.Lot,
		Quantity:              d.Quantity,
		DeliveredAt:           d.DeliveredAt,
		ReturnedAt:            d.ReturnedAt,
		Status:                d.Status,
		ERPSequence:           d.ERPSequence,
		ERPWrittenOffAt:       d.ERPWrittenOffAt,
	}
}

func anyStr(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	}
	return fmt.Sprint(v)
}

// isoDate fecha ISO (con o sin hora); sólo se conserva el día.
func isoDate(v any) *time.Time {
	s := anyStr(v)
	if s == "" {
		return nil
	}
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return &t
		}
	}
	return nil
}

func parseBRDate(s string) (time.Time, bool) {
	for _, layout := range []string{"02/01/2006", "2006-01-02", "02/01/06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
