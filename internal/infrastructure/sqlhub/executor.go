// Package sqlhub ejecuta los SELECT del SQL hub contra bancos externos vía database/sql.
package sqlhub

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "github.com/nakagami/firebirdsql"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/pkg/logger"
)

var _ ports.SQLExecutor = (*Executor)(nil)

// Executor mantiene un *sql.DB por DSN; cambiar la conexión cambia el DSN y abre otro pool.
type Executor struct {
	timeout time.Duration
	log     *logger.Logger

	mu  sync.Mutex
	dbs map[string]*sql.DB
}

// NewExecutor timeout se aplica a cada consulta (0 = 30s).
func NewExecutor(timeout time.Duration, log *logger.Logger) *Executor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Executor{timeout: timeout, log: log.Named("sqlhub_exec"), dbs: map[string]*sql.DB{}}
}

// Close cierra todos los pools abiertos.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, db := range e.dbs {
		_ = db.Close()
		delete(e.dbs, k)
	}
	return nil
}

func (e *Executor) open(c *entity.SQLConnection, password string) (*sql.DB, dialect, error) {
	d, err := dialectFor(c.Engine)
	if err != nil {
		return nil, d, err
	}
	dsn, err := d.dsn(c, password)
	if err != nil {
		return nil, d, err
	}
	sum := sha256.Sum256([]byte(d.driver + "\x00" + dsn))
	key := hex.EncodeToString(sum[:])

	e.mu.Lock()
	defer e.mu.Unlock()
	if db, ok := e.dbs[key]; ok {
		return db, d, nil
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, d, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)
	e.dbs[key] = db
	return db, d, nil
}

// Ping ejecuta SELECT 1 (RDB$DATABASE en Firebird).
func (e *Executor) Ping(ctx context.Context, c *entity.SQLConnection, password string) error {
	db, d, err := e.open(c, password)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	var one any
	if err := db.QueryRowContext(ctx, d.pingSQL()).Scan(&one); err != nil {
		return fmt.Errorf("falha ao conectar: %w", err)
	}
	return nil
}

// Query pide Limit+1 filas para saber si hay más páginas.
func (e *Executor) Query(ctx context.Context, c *entity.SQLConnection, password string, req ports.SQLRequest) (*ports.SQLPage, error) {
	db, d, err := e.open(c, password)
	if err != nil {
		return nil, err
	}
	if req.Limit <= 0 {
		req.Limit = entity.DefaultQueryLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	wrapped, args := d.wrap(req.SQL, req.Filters)
	final := d.paginate(wrapped, req.Offset, req.Limit+1)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	started := time.Now()
	rows, err := db.QueryContext(ctx, final, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	page := &ports.SQLPage{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		if len(page.Rows) == req.Limit {
			page.HasMore = true
			break
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			vals[i] = normalize(v)
		}
		page.Rows = append(page.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	e.log.Debug().Str("connection", c.Name).Int("rows", len(page.Rows)).Dur("took", time.Since(started)).Msg("consulta executada")
	return page, nil
}

// Distinct valores distintos no nulos de column, como texto.
func (e *Executor) Distinct(ctx context.Context, c *entity.SQLConnection, password, baseSQL, column, search string, limit int) ([]string, error) {
	db, d, err := e.open(c, password)
	if err != nil {
		return nil, err
	}
	query, args := d.distinct(baseSQL, column, search, limit)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() && len(out) < limit {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, fmt.Sprint(normalize(v)))
	}
	return out, rows.Err()
}

// normalize deja valores serializables a JSON: bytes a texto (UTF-8 o Windows-1252),
// decimales como string.
func normalize(v any) any {
	switch t := v.(type) {
	case []byte:
		if utf8.Valid(t) {
			return string(t)
		}
		if s, err := charmap.Windows1252.NewDecoder().Bytes(t); err == nil {
			return string(s)
		}
		return string(t)
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t.Format(time.RFC3339)
	}
	return v
}
