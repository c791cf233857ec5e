package sqlhub_test

import (
	"context"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/sqlquery"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/postgres/testhelper"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/sqlhub"
)

const seriesSQL = "SELECT g AS n, 'item ' || g AS label, CASE WHEN g % 2 = 0 THEN 'par' ELSE 'impar' END AS tipo FROM generate_series(1, 25) g"

func pgConnection(t *testing.T) (*entity.SQLConnection, string) {
	t.Helper()
	u, err := url.Parse(testhelper.SetupTestDSN(t))
	require.NoError(t, err)
	port, _ := strconv.Atoi(u.Port())
	pw, _ := u.User.Password()
	return &entity.SQLConnection{
		Name:     "teste",
		Engine:   entity.EnginePostgreSQL,
		Host:     u.Hostname(),
		Port:     port,
		Database: u.Path[1:],
		User:     u.User.Username(),
	}, pw
}

func TestExecutor_PingYPaginacion(t *testing.T) {
	conn, pw := pgConnection(t)
	ex := sqlhub.NewExecutor(0, nil)
	t.Cleanup(func() { _ = ex.Close() })
	ctx := context.Background()

	require.NoError(t, ex.Ping(ctx, conn, pw))

	page, err := ex.Query(ctx, conn, pw, ports.SQLRequest{SQL: seriesSQL, Limit: 10, Offset: 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"n", "label", "tipo"}, page.Columns)
	assert.Len(t, page.Rows, 5)
	assert.False(t, page.HasMore)

	page, err = ex.Query(ctx, conn, pw, ports.SQLRequest{SQL: seriesSQL, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Rows, 10)
	assert.True(t, page.HasMore)
}

func TestExecutor_Filtros(t *testing.T) {
	conn, pw := pgConnection(t)
	ex := sqlhub.NewExecutor(0, nil)
	t.Cleanup(func() { _ = ex.Close() })

	page, err := ex.Query(context.Background(), conn, pw, ports.SQLRequest{
		SQL: seriesSQL,
		Filters: []sqlquery.Filter{
			{Field: "tipo", Op: sqlquery.OpEq, Value: "par"},
			{Field: "label", Op: sqlquery.OpEndsWith, Value: "4"},
		},
		Limit: 100,
	})
	require.NoError(t, err)
	require.Len(t, page.Rows, 3) // 4, 14, 24
	assert.Equal(t, "item 14", page.Rows[1][1])
}

func TestExecutor_Distinct(t *testing.T) {
	conn, pw := pgConnection(t)
	ex := sqlhub.NewExecutor(0, nil)
	t.Cleanup(func() { _ = ex.Close() })

	opts, err := ex.Distinct(context.Background(), conn, pw, seriesSQL, "tipo", "", 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"impar", "par"}, opts)

	opts, err = ex.Distinct(context.Background(), conn, pw, seriesSQL, "tipo", "IMP", 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"impar"}, opts)
}

func TestExecutor_SenhaErrada(t *testing.T) {
	conn, _ := pgConnection(t)
	ex := sqlhub.NewExecutor(0, nil)
	t.Cleanup(func() { _ = ex.Close() })

	assert.Error(t, ex.Ping(context.Background(), conn, "errada"))
}
