package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/application/usecase"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

func hrRows() []map[string]any {
	return []map[string]any{
		{"unidade": "São Paulo", "contrato": "C1", "epi": "E1", "lote": "L1", "dataEntrega": "2024-05-02T00:00:00", "codigoEstoque": "EST-9", "descricaoEPI": "Luva", "quantidadeEntregue": float64(2)},
		{"unidade": "São Paulo", "contrato": "C1", "epi": "E2", "lote": "L1", "dataEntrega": "2024-05-02", "codigoEstoque": "EST-9"},
		{"unidade": "São Paulo", "contrato": "C2", "epi": "E1", "lote": "L2", "dataEntrega": "2024-05-03", "codigoEstoque": "EST-9", "descricaoEPI": "Luva"},
		{"unidade": "São Paulo", "contrato": "C2", "epi": "E3", "lote": "L2", "dataEntrega": "2024-05-03", "codigoEstoque": "EST-9", "descricaoEPI": "Luva nitrílica"},
		{"unidade": "São Paulo", "contrato": "C1", "epi": "E4", "dataEntrega": "sem data"},
	}
}

func newEPIFixture() (*usecase.EPIUseCase, *fakeEPIRepo, *fakeHR, *fakeMetrics, *fakeReports) {
	repo := newFakeEPIRepo()
	hr := &fakeHR{
		rows: hrRows(),
		contracts: map[string]ports.ContractInfo{
			"C1": {Name: "João Lima", CostCenter: "100", CostCenterDescription: "Obras"},
			"C2": {Name: "Maria Dias", CostCenter: "200"},
		},
	}
	metrics := &fakeMetrics{}
	reports := &fakeReports{}
	tx := &fakeTx{repos: ports.TxRepos{EPI: repo}}
	uc := usecase.NewEPIUseCase(repo, hr, tx, reports, nil).
		WithClock(func() time.Time { return fixedNow }).
		WithMetrics(metrics)
	return uc, repo, hr, metrics, reports
}

func TestEPISync_SemAPIConfigurada(t *testing.T) {
	uc := usecase.NewEPIUseCase(newFakeEPIRepo(), nil, &fakeTx{}, &fakeReports{}, nil)
	_, err := uc.Sync(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestEPISync_CompletaContratoYCuentaCambios(t *testing.T) {
	uc, repo, hr, metrics, _ := newEPIFixture()

	sum, err := uc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Count)
	assert.Equal(t, 4, sum.Created)
	assert.Zero(t, sum.Updated)
	require.Len(t, sum.Errors, 1)
	assert.Contains(t, sum.Errors[0], "dataEntrega")

	// un contrato se consulta una sola vez por ejecución
	assert.Equal(t, map[string]int{"C1": 1, "C2": 1}, hr.calls)

	d := repo.byKey[epiKey("São Paulo", "C1", "E1", "L1", time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))]
	require.NotNil(t, d)
	assert.Equal(t, "João Lima", d.EmployeeName)
	assert.Equal(t, "100", d.CostCenter)
	assert.Equal(t, "Obras", d.CostCenterDescription)
	assert.Equal(t, 2, d.Quantity)
	assert.Equal(t, entity.EPIStatusPending, d.Status)

	// sin descripción: la más frecuente del código de estoque
	noDesc := repo.byKey[epiKey("São Paulo", "C1", "E2", "L1", time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))]
	require.NotNil(t, noDesc)
	assert.Equal(t, "Luva", noDesc.EPIDescription)

	again, err := uc.Sync(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.Created)
	assert.Equal(t, 4, again.Updated)

	require.Len(t, metrics.syncs, 2)
	assert.Equal(t, metricCall{job: "epi", received: 5, created: 4, updated: 0, errors: 1}, metrics.syncs[0])
}

func TestEPISync_ErroDaAPI(t *testing.T) {
	uc, _, hr, metrics, _ := newEPIFixture()
	hr.err = errBoom

	_, err := uc.Sync(context.Background())
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, metrics.syncs)
}

func TestEPIWriteOff_Validacao(t *testing.T) {
	uc, _, _, _, _ := newEPIFixture()

	_, err := uc.WriteOff(context.Background(), dto.EPIWriteOffRequest{IDs: []string{"x"}, Sequence: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.WriteOff(context.Background(), dto.EPIWriteOffRequest{Sequence: "SEQ-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Revert(context.Background(), dto.EPIRevertRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func win1252(t *testing.T, s string) *strings.Reader {
	t.Helper()
	enc, err := charmap.Windows1252.NewEncoder().String(s)
	require.NoError(t, err)
	return strings.NewReader(enc)
}

func TestEPIImportWriteOffs_BaixaPorChaveNatural(t *testing.T) {
	uc, repo, _, _, _ := newEPIFixture()
	_, err := uc.Sync(context.Background())
	require.NoError(t, err)

	csvData := "Unidade;Contrato;EPI;Lote;Data_Entrega;Sequencial\n" +
		"São Paulo;C1;E1;L1;02/05/2024;SEQ-1\n" +
		"São Paulo;C1;E9;L1;02/05/2024;SEQ-2\n" +
		"São Paulo;C1;E2;L1;31/02/2024;SEQ-3\n" +
		";;;;;\n" +
		"São Paulo;C2;E1;L2;03/05/2024;\n"

	out, err := uc.ImportWriteOffs(context.Background(), win1252(t, csvData))
	require.NoError(t, err)
	assert.Equal(t, 4, out.Rows)
	assert.Equal(t, 1, out.WrittenOff)
	assert.Equal(t, 1, out.NotFound)
	require.Len(t, out.Errors, 2)
	assert.Contains(t, out.Errors[0], "linha 4")
	assert.Contains(t, out.Errors[1], "sequencial vazio")

	k := epiKey("São Paulo", "C1", "E1", "L1", time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, entity.EPIStatusWrittenOff, repo.byKey[k].Status)
	assert.Equal(t, "SEQ-1", repo.writeOffs[k])

	// ya baixada: no cuenta de nuevo
	again, err := uc.ImportWriteOffs(context.Background(), win1252(t, "unidade;contrato;epi;lote;data_entrega;sequencial\nSão Paulo;C1;E1;L1;02/05/2024;SEQ-9\n"))
	require.NoError(t, err)
	assert.Zero(t, again.WrittenOff)
	assert.Equal(t, 1, again.NotFound)
	assert.Equal(t, "SEQ-1", repo.writeOffs[k])
}

func TestEPIImportWriteOffs_ColunaAusente(t *testing.T) {
	uc, _, _, _, _ := newEPIFixture()

	_, err := uc.ImportWriteOffs(context.Background(), strings.NewReader("unidade;contrato;epi\nA;B;C\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.ImportWriteOffs(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEPIPendingReport_OrdenaPorCentroDeCusto(t *testing.T) {
	uc, repo, _, _, reports := newEPIFixture()
	day := func(d int) time.Time { return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC) }
	repo.listed = []*entity.EPIDelivery{
		{ID: "3", CostCenter: "200", DeliveredAt: day(1), StockCode: "A"},
		{ID: "2", CostCenter: "100", DeliveredAt: day(5), StockCode: "A"},
		{ID: "1", CostCenter: "100", DeliveredAt: day(2), StockCode: "B"},
	}

	pdf, err := uc.PendingReport(context.Background(), dto.EPIFilterRequest{Unit: " São Paulo ", From: "2024-05-01", To: "data ruim"})
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)

	assert.Equal(t, []string{"Entregas de EPI pendentes"}, reports.epiTitles)
	assert.Equal(t, 3, reports.epiCount)
	assert.Equal(t, entity.EPIStatusPending, repo.lastF.Status)
	assert.Equal(t, "São Paulo", repo.lastF.Unit)
	require.NotNil(t, repo.lastF.From)
	assert.Nil(t, repo.lastF.To)

	var ids []string
	for _, d := range repo.listed {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}
