package ports

import (
	"context"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/sqlquery"
)

// SQLPage página de resultados.
type SQLPage struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	HasMore bool     `json:"has_more"`
}

// SQLRequest consulta a ejecutar sobre un SELECT ya validado.
type SQLRequest struct {
	SQL     string
	Filters []sqlquery.Filter
	Offset  int
	Limit   int
}

// SQLExecutor ejecuta SELECTs contra bancos externos. password ya viene abierto.
type SQLExecutor interface {
	Ping(ctx context.Context, conn *entity.SQLConnection, password string) error
	Query(ctx context.Context, conn *entity.SQLConnection, password string, req SQLRequest) (*SQLPage, error)
	Distinct(ctx context.Context, conn *entity.SQLConnection, password, baseSQL, column, search string, limit int) ([]string, error)
}
