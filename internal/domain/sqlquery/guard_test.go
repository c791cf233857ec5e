package sqlquery_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/sqlquery"
)

func TestEnsureSelect_Acepta(t *testing.T) {
	cases := map[string]string{
		"simple":               "SELECT id, nome FROM clientes",
		"comentarios":          "-- relatório\n/* mensal */ select * from vendas",
		"punto y coma final":   "SELECT 1;",
		"columna updated_at":   "SELECT updated_at, created_by FROM pedidos",
		"minusculas y blancos": "   select count(*) from t  ",
	}
	for name, sql := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := sqlquery.EnsureSelect(sql)
			require.NoError(t, err)
			assert.NotContains(t, out, ";")
		})
	}
}

func TestEnsureSelect_Rechaza(t *testing.T) {
	cases := map[string]string{
		"vacia":           "  ",
		"update":          "UPDATE t SET a = 1",
		"dos sentencias":  "SELECT 1; DROP TABLE t",
		"delete embebido": "SELECT * FROM t WHERE id IN (DELETE FROM x RETURNING id)",
		"use":             "SELECT 1 FROM t use master",
		"exec":            "select * from t where exec sp_who",
		"with":            "WITH x AS (SELECT 1) SELECT * FROM x",
	}
	for name, sql := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := sqlquery.EnsureSelect(sql)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrNotSelect))
		})
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 1000, sqlquery.ClampLimit("", 1000))
	assert.Equal(t, 1000, sqlquery.ClampLimit("abc", 1000))
	assert.Equal(t, 1, sqlquery.ClampLimit("-4", 1000))
	assert.Equal(t, 5000, sqlquery.ClampLimit("99999", 1000))
	assert.Equal(t, 8000, sqlquery.ClampLimit("8000", 8000))
	assert.Equal(t, 250, sqlquery.ClampLimit(" 250 ", 2000))
}

func TestNormalizeFilters(t *testing.T) {
	in := []sqlquery.Filter{
		{Field: "nome", Op: "", Value: "x"},
		{Field: "valor", Op: ">=", Value: "10"},
		{Field: "1=1; --", Op: "eq", Value: "x"},
		{Field: "cidade", Op: "regex", Value: "x"},
		{Field: "uf", Op: "STARTS_WITH", Value: "S"},
	}
	out := sqlquery.NormalizeFilters(in)
	require.Len(t, out, 3)
	assert.Equal(t, sqlquery.OpEq, out[0].Op)
	assert.Equal(t, sqlquery.OpGte, out[1].Op)
	assert.Equal(t, sqlquery.OpStartsWith, out[2].Op)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%ab%", sqlquery.LikePattern(sqlquery.OpContains, "ab"))
	assert.Equal(t, "ab%", sqlquery.LikePattern(sqlquery.OpStartsWith, "ab"))
	assert.Equal(t, "%ab", sqlquery.LikePattern(sqlquery.OpEndsWith, "ab"))
}
