package repository

import (
	"context"
	"time"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

// SQLHubRepository conexiones externas, consultas guardadas y caché de resultados.
type SQLHubRepository interface {
	CreateConnection(ctx context.Context, c *entity.SQLConnection) error
	UpdateConnection(ctx context.Context, c *entity.SQLConnection) error
	DeleteConnection(ctx context.Context, id string) error
	GetConnection(ctx context.Context, id string) (*entity.SQLConnection, error)
	ListConnections(ctx context.Context) ([]*entity.SQLConnection, error)

	CreateQuery(ctx context.Context, q *entity.SavedQuery) error
	UpdateQuery(ctx context.Context, q *entity.SavedQuery) error
	DeleteQuery(ctx context.Context, id string) error
	GetQuery(ctx context.Context, id string) (*entity.SavedQuery, error)
	ListQueries(ctx context.Context, connectionID string) ([]*entity.SavedQuery, error)

	GetCache(ctx context.Context, queryID, paramsHash string, now time.Time) (*entity.QueryCacheEntry, error)
	PutCache(ctx context.Context, e *entity.QueryCacheEntry) error
	PurgeExpiredCache(ctx context.Context, now time.Time) (int64, error)
}
