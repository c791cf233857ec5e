package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/portal-intranet/internal/domain"
)

// psql builder de squirrel con placeholders $n.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isForeignKeyViolation 23503: la fila referenciada no existe.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// wrap traduce errores de PostgreSQL a errores de dominio. Los errores de contexto pasan tal cual.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// exec compila y ejecuta un builder de squirrel; devuelve las filas afectadas.
func exec(ctx context.Context, q Querier, op string, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: build: %w", op, err)
	}
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, wrap(op, err)
	}
	return tag.RowsAffected(), nil
}

// queryRow compila el builder y escanea una fila. Sin filas devuelve (false, nil).
func queryRow(ctx context.Context, q Querier, op string, b sq.Sqlizer, dest ...any) (bool, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return false, fmt.Errorf("%s: build: %w", op, err)
	}
	if err := q.QueryRow(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, wrap(op, err)
	}
	return true, nil
}

// query compila el builder y recorre las filas con scan.
func query(ctx context.Context, q Querier, op string, b sq.Sqlizer, scan func(pgx.Rows) error) error {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("%s: build: %w", op, err)
	}
	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return wrap(op, err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("%s: scan: %w", op, err)
		}
	}
	return wrap(op, rows.Err())
}

// count ejecuta un SELECT COUNT(*) construido desde base.
func count(ctx context.Context, q Querier, op string, b sq.SelectBuilder) (int, error) {
	var n int
	if _, err := queryRow(ctx, q, op, b, &n); err != nil {
		return 0, err
	}
	return n, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ilike patrón de búsqueda contiene, con comodines escapados.
func ilike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}
