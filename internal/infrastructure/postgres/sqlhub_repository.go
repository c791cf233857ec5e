package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
)

var _ repository.SQLHubRepository = (*SQLHubRepo)(nil)

var (
	connectionColumns = []string{"id", "name", "engine", "host", "port", "database", "db_user", "password_enc", "options", "active", "created_at", "updated_at"}
	savedQueryColumns = []string{"id", "connection_id", "name", "sql", "description", "default_limit", "COALESCE(created_by::text, '')", "created_at", "updated_at"}
)

// SQLHubRepo conexiones externas, consultas guardadas y caché.
type SQLHubRepo struct {
	q Querier
}

// NewSQLHubRepository construye el repositorio.
func NewSQLHubRepository(q Querier) *SQLHubRepo {
	return &SQLHubRepo{q: q}
}

func notFoundIfZero(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreateConnection nombre repetido -> ErrDuplicate.
func (r *SQLHubRepo) CreateConnection(ctx context.Context, c *entity.SQLConnection) error {
	_, err := exec(ctx, r.q, "insert connection", psql.Insert("sqlhub_connections").Columns(connectionColumns...).
		Values(c.ID, c.Name, c.Engine, c.Host, c.Port, c.Database, c.User, c.PasswordEnc, c.Options, c.Active, c.CreatedAt, c.UpdatedAt))
	return err
}

func (r *SQLHubRepo) UpdateConnection(ctx context.Context, c *entity.SQLConnection) error {
	return notFoundIfZero(exec(ctx, r.q, "update connection", psql.Update("sqlhub_connections").SetMap(map[string]any{
		"name":         c.Name,
		"engine":       c.Engine,
		"host":         c.Host,
		"port":         c.Port,
		"database":     c.Database,
		"db_user":      c.User,
		"password_enc": c.PasswordEnc,
		"options":      c.Options,
		"active":       c.Active,
		"updated_at":   c.UpdatedAt,
	}).Where(sq.Eq{"id": c.ID})))
}

func (r *SQLHubRepo) DeleteConnection(ctx context.Context, id string) error {
	return notFoundIfZero(exec(ctx, r.q, "delete connection", psql.Delete("sqlhub_connections").Where(sq.Eq{"id": id})))
}

func scanConnection(row pgx.Row) (*entity.SQLConnection, error) {
	var c entity.SQLConnection
	if err := row.Scan(&c.ID, &c.Name, &c.Engine, &c.Host, &c.Port, &c.Database, &c.User, &c.PasswordEnc,
		&c.Options, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *SQLHubRepo) listConnections(ctx context.Context, op string, b sq.SelectBuilder) ([]*entity.SQLConnection, error) {
	var out []*entity.SQLConnection
	err := query(ctx, r.q, op, b, func(rows pgx.Rows) error {
		c, err := scanConnection(rows)
		if err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	return out, err
}

func (r *SQLHubRepo) GetConnection(ctx context.Context, id string) (*entity.SQLConnection, error) {
	list, err := r.listConnections(ctx, "get connection",
		psql.Select(connectionColumns...).From("sqlhub_connections").Where(sq.Eq{"id": id}))
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (r *SQLHubRepo) ListConnections(ctx context.Context) ([]*entity.SQLConnection, error) {
	return r.listConnections(ctx, "list connections",
		psql.Select(connectionColumns...).From("sqlhub_connections").OrderBy("name"))
}

// CreateQuery nombre repetido en la conexión -> ErrDuplicate.
func (r *SQLHubRepo) CreateQuery(ctx context.Context, q *entity.SavedQuery) error {
	_, err := exec(ctx, r.q, "insert saved query", psql.Insert("sqlhub_queries").
		Columns("id", "connection_id", "name", "sql", "description", "default_limit", "created_by", "created_at", "updated_at").
		Values(q.ID, q.ConnectionID, q.Name, q.SQL, q.Description, q.DefaultLimit, nullIfEmpty(q.CreatedBy), q.CreatedAt, q.UpdatedAt))
	return err
}

func (r *SQLHubRepo) UpdateQuery(ctx context.Context, q *entity.SavedQuery) error {
	return notFoundIfZero(exec(ctx, r.q, "update saved query", psql.Update("sqlhub_queries").SetMap(map[string]any{
		"connection_id": q.ConnectionID,
		"name":          q.Name,
		"sql":           q.SQL,
		"description":   q.Description,
		"default_limit": q.DefaultLimit,
		"updated_at":    q.UpdatedAt,
	}).Where(sq.Eq{"id": q.ID})))
}

func (r *SQLHubRepo) DeleteQuery(ctx context.Context, id string) error {
	return notFoundIfZero(exec(ctx, r.q, "delete saved query", psql.Delete("sqlhub_queries").Where(sq.Eq{"id": id})))
}

func (r *SQLHubRepo) listQueries(ctx context.Context, op string, b sq.SelectBuilder) ([]*entity.SavedQuery, error) {
	var out []*entity.SavedQuery
	err := query(ctx, r.q, op, b, func(rows pgx.Rows) error {
		var q entity.SavedQuery
		if err := rows.Scan(&q.ID, &q.ConnectionID, &q.Name, &q.SQL, &q.Description, &q.DefaultLimit,
			&q.CreatedBy, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return err
		}
		out = append(out, &q)
		return nil
	})
	return out, err
}

func (r *SQLHubRepo) GetQuery(ctx context.Context, id string) (*entity.SavedQuery, error) {
	list, err := r.listQueries(ctx, "get saved query",
		psql.Select(savedQueryColumns...).From("sqlhub_queries").Where(sq.Eq{"id": id}))
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

// ListQueries consultas de una conexión; connectionID vacío lista todas.
func (r *SQLHubRepo) ListQueries(ctx context.Context, connectionID string) ([]*entity.SavedQuery, error) {
	b := psql.Select(savedQueryColumns...).From("sqlhub_queries").OrderBy("name")
	if connectionID != "" {
		b = b.Where(sq.Eq{"connection_id": connectionID})
	}
	return r.listQueries(ctx, "list saved queries", b)
}

// GetCache entrada vigente en now; nil si no hay o expiró.
func (r *SQLHubRepo) GetCache(ctx context.Context, queryID, paramsHash string, now time.Time) (*entity.QueryCacheEntry, error) {
	e := entity.QueryCacheEntry{QueryID: queryID, ParamsHash: paramsHash}
	found, err := queryRow(ctx, r.q, "get query cache", psql.Select("payload", "expires_at").From("sqlhub_cache").
		Where(sq.Eq{"query_id": queryID, "params_hash": paramsHash}).
		Where(sq.Gt{"expires_at": now}), &e.Payload, &e.ExpiresAt)
	if err != nil || !found {
		return nil, err
	}
	return &e, nil
}

// PutCache guarda o reemplaza la entrada.
func (r *SQLHubRepo) PutCache(ctx context.Context, e *entity.QueryCacheEntry) error {
	_, err := exec(ctx, r.q, "put query cache", psql.Insert("sqlhub_cache").
		Columns("query_id", "params_hash", "payload", "expires_at").
		Values(e.QueryID, e.ParamsHash, string(e.Payload), e.ExpiresAt).
		Suffix("ON CONFLICT (query_id, params_hash) DO UPDATE SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at"))
	return err
}

// PurgeExpiredCache borra las entradas vencidas.
func (r *SQLHubRepo) PurgeExpiredCache(ctx context.Context, now time.Time) (int64, error) {
	return exec(ctx, r.q, "purge query cache", psql.Delete("sqlhub_cache").Where(sq.LtOrEq{"expires_at": now}))
}
