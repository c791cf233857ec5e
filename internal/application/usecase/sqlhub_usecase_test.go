package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/application/usecase"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/pkg/secretbox"
)

type sqlFixture struct {
	uc   *usecase.SQLHubUseCase
	repo *fakeSQLRepo
	exec *fakeExecutor
}

func newSQLFixture(t *testing.T) *sqlFixture {
	t.Helper()
	box, err := secretbox.New(strings.Repeat("ab", 32))
	require.NoError(t, err)
	f := &sqlFixture{
		repo: newFakeSQLRepo(),
		exec: &fakeExecutor{page: &ports.SQLPage{Columns: []string{"id", "nome"}, Rows: [][]any{{1, "Ana"}, {2, nil}}}},
	}
	f.uc = usecase.NewSQLHubUseCase(f.repo, f.exec, box, usecase.SQLHubConfig{SoftMax: 1000, CacheTTL: 5 * time.Minute}, nil).
		WithClock(func() time.Time { return fixedNow })
	return f
}

func (f *sqlFixture) connection(t *testing.T, active bool) string {
	t.Helper()
	resp, err := f.uc.CreateConnection(context.Background(), dto.SQLConnectionRequest{
		Name:     " ERP ",
		Engine:   entity.EngineFirebird,
		Host:     "erp.local",
		Port:     3050,
		Database: "/dados/erp.fdb",
		User:     "sysdba",
		Password: "masterkey",
		Active:   active,
	})
	require.NoError(t, err)
	return resp.ID
}

func sqlViewer() dto.Principal {
	return dto.Principal{UserID: "u-req", Permissions: []string{entity.PermSQLHubRun}}
}

func sqlManager() dto.Principal {
	return dto.Principal{UserID: "u-adm", Permissions: []string{entity.PermSQLHubRun, entity.PermSQLHubManage}}
}

func TestSQLHubConnection_SenhaSelada(t *testing.T) {
	f := newSQLFixture(t)
	id := f.connection(t, true)

	stored := f.repo.conns[id]
	assert.Equal(t, "ERP", stored.Name)
	assert.True(t, secretbox.IsSealed(stored.PasswordEnc))
	assert.NotContains(t, stored.PasswordEnc, "masterkey")

	require.NoError(t, f.uc.TestConnection(context.Background(), id))
	assert.Equal(t, []string{"masterkey"}, f.exec.passwords)

	// senha vazia conserva a anterior
	sealed := stored.PasswordEnc
	_, err := f.uc.UpdateConnection(context.Background(), id, dto.SQLConnectionRequest{
		Name: "ERP", Engine: entity.EngineFirebird, Host: "erp2.local", Database: "x", User: "sysdba", Active: true,
	})
	require.NoError(t, err)
	assert.Equal(t, sealed, f.repo.conns[id].PasswordEnc)
	assert.Equal(t, "erp2.local", f.repo.conns[id].Host)
}

func TestSQLHubConnection_MotorInvalido(t *testing.T) {
	f := newSQLFixture(t)
	_, err := f.uc.CreateConnection(context.Background(), dto.SQLConnectionRequest{Name: "x", Engine: "oracle"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.repo.conns)
}

func TestSQLHubConnection_TesteFalho(t *testing.T) {
	f := newSQLFixture(t)
	id := f.connection(t, true)
	f.exec.err = errBoom

	err := f.uc.TestConnection(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestSQLHubQuery_SoSelect(t *testing.T) {
	f := newSQLFixture(t)
	id := f.connection(t, true)

	_, err := f.uc.CreateQuery(context.Background(), sqlManager(), dto.SavedQueryRequest{ConnectionID: id, Name: "apagar", SQL: "DELETE FROM clientes"})
	assert.ErrorIs(t, err, domain.ErrNotSelect)

	_, err = f.uc.CreateQuery(context.Background(), sqlManager(), dto.SavedQueryRequest{ConnectionID: "nada", Name: "x", SQL: "SELECT 1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	q, err := f.uc.CreateQuery(context.Background(), sqlManager(), dto.SavedQueryRequest{ConnectionID: id, Name: "clientes", SQL: " SELECT id, nome FROM clientes "})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, nome FROM clientes", q.SQL)
	assert.Equal(t, entity.DefaultQueryLimit, q.DefaultLimit)
}

func TestSQLHubRun_CacheDeConsultaSalva(t *testing.T) {
	f := newSQLFixture(t)
	id := f.connection(t, true)
	q, err := f.uc.CreateQuery(context.Background(), sqlManager(), dto.SavedQueryRequest{ConnectionID: id, Name: "clientes", SQL: "SELECT id, nome FROM clientes", DefaultLimit: 100})
	require.NoError(t, err)

	in := dto.RunQueryRequest{
		QueryID: q.ID,
		Filters: []dto.FilterRequest{{Field: "nome", Op: "contains", Value: "ana"}, {Field: "1=1;--", Op: "eq"}},
	}
	first, err := f.uc.Run(context.Background(), sqlViewer(), in)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 100, first.Limit)
	assert.Equal(t, []string{"id", "nome"}, first.Columns)

	require.Len(t, f.exec.queries, 1)
	assert.Equal(t, 100, f.exec.queries[0].Limit)
	// el filtro con identificador inválido se descarta
	require.Len(t, f.exec.queries[0].Filters, 1)
	assert.Equal(t, "nome", f.exec.queries[0].Filters[0].Field)
	assert.Equal(t, 1, f.repo.puts)

	second, err := f.uc.Run(context.Background(), sqlViewer(), in)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Len(t, second.Rows, 2)
	assert.Len(t, f.exec.queries, 1)

	in.NoCache = true
	third, err := f.uc.Run(context.Background(), sqlViewer(), in)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Len(t, f.exec.queries, 2)
}

func TestSQLHubRun_AdHocExigeGestao(t *testing.T) {
	f := newSQLFixture(t)
	id := f.connection(t, true)
	in := dto.RunQueryRequest{ConnectionID: id, SQL: "select * from pedidos", Limit: "99999"}

	_, err := f.uc.Run(context.Background(), sqlViewer(), in)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	resp, err := f.uc.Run(context.Background(), sqlManager(), in)
	require.NoError(t, err)
	assert.Equal(t, 5000, resp.Limit)
	// ad-hoc nunca se cachea
	assert.Zero(t, f.repo.puts)
}

func TestSQLHubRun_Rejeicoes(t *testing.T) {
	f := newSQLFixture(t)
	inactive := f.connection(t, false)

	_, err := f.uc.Run(context.Background(), sqlManager(), dto.RunQueryRequest{ConnectionID: inactive, SQL: "SELECT 1"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.uc.Run(context.Background(), sqlManager(), dto.RunQueryRequest{ConnectionID: inactive, SQL: "UPDATE x SET y = 1"})
	assert.ErrorIs(t, err, domain.ErrNotSelect)

	_, err = f.uc.Run(context.Background(), sqlManager(), dto.RunQueryRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Run(context.Background(), sqlViewer(), dto.RunQueryRequest{QueryID: "nada"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.exec.queries)
}

func TestSQLHubDistinct_ColunaInvalida(t *testing.T) {
	f := newSQLFixture(t)
	id := f.connection(t, true)
	q, err := f.uc.CreateQuery(context.Background(), sqlManager(), dto.SavedQueryRequest{ConnectionID: id, Name: "c", SQL: "SELECT uf FROM clientes"})
	require.NoError(t, err)

	_, err = f.uc.Distinct(context.Background(), sqlViewer(), q.ID, dto.DistinctRequest{Column: "uf; drop"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	opts, err := f.uc.Distinct(context.Background(), sqlViewer(), q.ID, dto.DistinctRequest{Column: "uf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, opts)
}

func TestSQLHubExportCSV_ComBOM(t *testing.T) {
	f := newSQLFixture(t)
	id := f.connection(t, true)
	q, err := f.uc.CreateQuery(context.Background(), sqlManager(), dto.SavedQueryRequest{ConnectionID: id, Name: "c", SQL: "SELECT id, nome FROM clientes"})
	require.NoError(t, err)

	out, err := f.uc.ExportCSV(context.Background(), sqlViewer(), dto.RunQueryRequest{QueryID: q.ID})
	require.NoError(t, err)
	assert.Equal(t, "\ufeffid;nome\n1;Ana\n2;\n", string(out))
	require.Len(t, f.exec.queries, 1)
	assert.Equal(t, 5000, f.exec.queries[0].Limit)
}

func TestSQLHubRun_CacheConservaInteirosGrandes(t *testing.T) {
	f := newSQLFixture(t)
	f.exec.page = &ports.SQLPage{
		Columns: []string{"id", "saldo", "nome"},
		Rows:    [][]any{{int64(9007199254740993), 12.5, "Ana"}},
	}
	id := f.connection(t, true)
	q, err := f.uc.CreateQuery(context.Background(), sqlManager(), dto.SavedQueryRequest{ConnectionID: id, Name: "ids", SQL: "SELECT id, saldo, nome FROM contas", DefaultLimit: 10})
	require.NoError(t, err)
	in := dto.RunQueryRequest{QueryID: q.ID}

	fresh, err := f.uc.Run(context.Background(), sqlViewer(), in)
	require.NoError(t, err)
	cached, err := f.uc.Run(context.Background(), sqlViewer(), in)
	require.NoError(t, err)
	require.True(t, cached.Cached)

	assert.Equal(t, fresh.Rows, cached.Rows)
	assert.Equal(t, int64(9007199254740993), cached.Rows[0][0])
	assert.Equal(t, 12.5, cached.Rows[0][1])
}
