package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
	"github.com/jhoicas/portal-intranet/internal/domain/sqlquery"
	"github.com/jhoicas/portal-intranet/pkg/logger"
	"github.com/jhoicas/portal-intranet/pkg/secretbox"
)

const (
	optionsCacheSize = 512
	optionsCacheTTL  = 45 * time.Second
	// exportMaxRows techo de filas de una exportación CSV.
	exportMaxRows = 200000
)

// SQLHubConfig límites del SQL hub.
type SQLHubConfig struct {
	SoftMax  int
	CacheTTL time.Duration
}

// SQLHubUseCase puente SQL de sólo lectura hacia bancos externos.
type SQLHubUseCase struct {
	repo    repository.SQLHubRepository
	exec    ports.SQLExecutor
	box     *secretbox.Box
	cfg     SQLHubConfig
	options *expirable.LRU[string, []string]
	log     *logger.Logger
	now     func() time.Time
}

// NewSQLHubUseCase construye el caso de uso. box sella las contraseñas de las conexiones.
func NewSQLHubUseCase(repo repository.SQLHubRepository, exec ports.SQLExecutor, box *secretbox.Box, cfg SQLHubConfig, log *logger.Logger) *SQLHubUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.SoftMax <= 0 {
		cfg.SoftMax = sqlquery.HardMaxRows
	}
	return &SQLHubUseCase{
		repo:    repo,
		exec:    exec,
		box:     box,
		cfg:     cfg,
		options: expirable.NewLRU[string, []string](optionsCacheSize, nil, optionsCacheTTL),
		log:     log.Named("sqlhub"),
		now:     time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *SQLHubUseCase) WithClock(now func() time.Time) *SQLHubUseCase {
	uc.now = now
	return uc
}

// ----- conexiones -----

// CreateConnection alta de conexión; la contraseña se guarda sellada.
func (uc *SQLHubUseCase) CreateConnection(ctx context.Context, in dto.SQLConnectionRequest) (*dto.SQLConnectionResponse, error) {
	now := uc.now()
	c := &entity.SQLConnection{ID: uuid.New().String(), CreatedAt: now}
	if err := uc.applyConnection(c, in); err != nil {
		return nil, err
	}
	c.UpdatedAt = now
	if err := uc.repo.CreateConnection(ctx, c); err != nil {
		return nil, err
	}
	return connectionToResponse(c), nil
}

// UpdateConnection edita la conexión; password vacío conserva el anterior.
func (uc *SQLHubUseCase) UpdateConnection(ctx context.Context, id string, in dto.SQLConnectionRequest) (*dto.SQLConnectionResponse, error) {
	c, err := uc.mustConnection(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.applyConnection(c, in); err != nil {
		return nil, err
	}
	c.UpdatedAt = uc.now()
	if err := uc.repo.UpdateConnection(ctx, c); err != nil {
		return nil, err
	}
	return connectionToResponse(c), nil
}

func (uc *SQLHubUseCase) applyConnection(c *entity.SQLConnection, in dto.SQLConnectionRequest) error {
	switch in.Engine {
	case entity.EngineFirebird, entity.EnginePostgreSQL, entity.EngineMySQL, entity.EngineMSSQL:
	default:
		return fmt.Errorf("%w: engine %q", domain.ErrInvalidInput, in.Engine)
	}
	if in.Password != "" {
		if uc.box == nil {
			return fmt.Errorf("%w: SQLHUB_SECRET_KEY", domain.ErrNotConfigured)
		}
		sealed, err := uc.box.Seal(in.Password)
		if err != nil {
			return err
		}
		c.PasswordEnc = sealed
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Engine = in.Engine
	c.Host = strings.TrimSpace(in.Host)
	c.Port = in.Port
	c.Database = strings.TrimSpace(in.Database)
	c.User = strings.TrimSpace(in.User)
	c.Options = strings.TrimSpace(in.Options)
	c.Active = in.Active
	return nil
}

// DeleteConnection elimina la conexión y sus consultas.
func (uc *SQLHubUseCase) DeleteConnection(ctx context.Context, id string) error {
	if _, err := uc.mustConnection(ctx, id); err != nil {
		return err
	}
	return uc.repo.DeleteConnection(ctx, id)
}

// ListConnections todas las conexiones (sin contraseñas).
func (uc *SQLHubUseCase) ListConnections(ctx context.Context) ([]dto.SQLConnectionResponse, error) {
	list, err := uc.repo.ListConnections(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SQLConnectionResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *connectionToResponse(c))
	}
	return out, nil
}

// TestConnection abre la conexión y ejecuta el SELECT de prueba del motor.
func (uc *SQLHubUseCase) TestConnection(ctx context.Context, id string) error {
	c, err := uc.mustConnection(ctx, id)
	if err != nil {
		return err
	}
	pw, err := uc.password(c)
	if err != nil {
		return err
	}
	if err := uc.exec.Ping(ctx, c, pw); err != nil {
		uc.log.Warn().Err(err).Str("connection", c.Name).Msg("test de conexión fallido")
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	return nil
}

func (uc *SQLHubUseCase) password(c *entity.SQLConnection) (string, error) {
	if c.PasswordEnc == "" {
		return "", nil
	}
	if !secretbox.IsSealed(c.PasswordEnc) {
		return c.PasswordEnc, nil
	}
	if uc.box == nil {
		return "", fmt.Errorf("%w: SQLHUB_SECRET_KEY", domain.ErrNotConfigured)
	}
	return uc.box.Open(c.PasswordEnc)
}

// ----- consultas guardadas -----

// CreateQuery guarda una consulta; el SQL debe ser un SELECT.
func (uc *SQLHubUseCase) CreateQuery(ctx context.Context, actor dto.Principal, in dto.SavedQueryRequest) (*dto.SavedQueryResponse, error) {
	now := uc.now()
	q := &entity.SavedQuery{ID: uuid.New().String(), CreatedBy: actor.UserID, CreatedAt: now}
	if err := uc.applyQuery(ctx, q, in); err != nil {
		return nil, err
	}
	q.UpdatedAt = now
	if err := uc.repo.CreateQuery(ctx, q); err != nil {
		return nil, err
	}
	return queryToResponse(q), nil
}

// UpdateQuery edita la consulta.
func (uc *SQLHubUseCase) UpdateQuery(ctx context.Context, id string, in dto.SavedQueryRequest) (*dto.SavedQueryResponse, error) {
	q, err := uc.mustQuery(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.applyQuery(ctx, q, in); err != nil {
		return nil, err
	}
	q.UpdatedAt = uc.now()
	if err := uc.repo.UpdateQuery(ctx, q); err != nil {
		return nil, err
	}
	return queryToResponse(q), nil
}

func (uc *SQLHubUseCase) applyQuery(ctx context.Context, q *entity.SavedQuery, in dto.SavedQueryRequest) error {
	if _, err := uc.mustConnection(ctx, in.ConnectionID); err != nil {
		return err
	}
	if _, err := sqlquery.EnsureSelect(in.SQL); err != nil {
		return err
	}
	limit := in.DefaultLimit
	if limit <= 0 {
		limit = entity.DefaultQueryLimit
	}
	q.ConnectionID = in.ConnectionID
	q.Name = strings.TrimSpace(in.Name)
	q.SQL = strings.TrimSpace(in.SQL)
	q.Description = in.Description
	q.DefaultLimit = limit
	return nil
}

// DeleteQuery elimina la consulta.
func (uc *SQLHubUseCase) DeleteQuery(ctx context.Context, id string) error {
	if _, err := uc.mustQuery(ctx, id); err != nil {
		return err
	}
	return uc.repo.DeleteQuery(ctx, id)
}

// ListQueries consultas de la conexión (vacío = todas).
func (uc *SQLHubUseCase) ListQueries(ctx context.Context, connectionID string) ([]dto.SavedQueryResponse, error) {
	list, err := uc.repo.ListQueries(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SavedQueryResponse, 0, len(list))
	for _, q := range list {
		out = append(out, *queryToResponse(q))
	}
	return out, nil
}

// ----- ejecución -----

// Run ejecuta una consulta guardada (QueryID) o ad-hoc (ConnectionID + SQL) con filtros y
// paginación. Los resultados de consultas guardadas se cachean por hash de parámetros.
func (uc *SQLHubUseCase) Run(ctx context.Context, actor dto.Principal, in dto.RunQueryRequest) (*dto.RunQueryResponse, error) {
	target, err := uc.resolve(ctx, actor, in.QueryID, in.ConnectionID, in.SQL)
	if err != nil {
		return nil, err
	}
	rawLimit := in.Limit
	if strings.TrimSpace(rawLimit) == "" && target.query != nil {
		rawLimit = fmt.Sprint(target.query.DefaultLimit)
	}
	limit := sqlquery.ClampLimit(rawLimit, uc.cfg.SoftMax)
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}
	filters := sqlquery.NormalizeFilters(toFilters(in.Filters))
	req := ports.SQLRequest{SQL: target.sql, Filters: filters, Offset: offset, Limit: limit}

	var hash string
	cacheable := target.query != nil && uc.cfg.CacheTTL > 0
	if cacheable {
		hash = paramsHash(target.sql, filters, offset, limit)
		if !in.NoCache {
			if hit, err := uc.repo.GetCache(ctx, target.query.ID, hash, uc.now()); err != nil {
				uc.log.Warn().Err(err).Msg("lectura de caché fallida")
			} else if hit != nil {
				if page, err := decodeCachedPage(hit.Payload); err == nil {
					return pageToResponse(page, limit, offset, true), nil
				}
			}
		}
	}

	page, err := uc.exec.Query(ctx, target.conn, target.password, req)
	if err != nil {
		uc.log.Warn().Err(err).Str("connection", target.conn.Name).Msg("consulta fallida")
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	if cacheable {
		if payload, err := json.Marshal(page); err == nil {
			entry := &entity.QueryCacheEntry{QueryID: target.query.ID, ParamsHash: hash, Payload: payload, ExpiresAt: uc.now().Add(uc.cfg.CacheTTL)}
			if err := uc.repo.PutCache(ctx, entry); err != nil {
				uc.log.Warn().Err(err).Msg("escritura de caché fallida")
			}
		}
	}
	return pageToResponse(page, limit, offset, false), nil
}

// Distinct opciones distintas de una columna del resultado, cacheadas en memoria por 45 s.
func (uc *SQLHubUseCase) Distinct(ctx context.Context, actor dto.Principal, queryID string, in dto.DistinctRequest) ([]string, error) {
	column := strings.TrimSpace(in.Column)
	if !sqlquery.ValidIdentifier(column) {
		return nil, fmt.Errorf("%w: coluna inválida", domain.ErrInvalidInput)
	}
	target, err := uc.resolve(ctx, actor, queryID, "", "")
	if err != nil {
		return nil, err
	}
	search := strings.TrimSpace(in.Search)
	key := strings.Join([]string{queryID, strings.ToLower(column), strings.ToLower(search)}, "\x00")
	if opts, ok := uc.options.Get(key); ok {
		return opts, nil
	}
	opts, err := uc.exec.Distinct(ctx, target.conn, target.password, target.sql, column, search, sqlquery.MaxDistinctOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	if opts == nil {
		opts = []string{}
	}
	uc.options.Add(key, opts)
	return opts, nil
}

// ExportCSV resultado completo (hasta exportMaxRows filas) en CSV separado por ';' con BOM.
func (uc *SQLHubUseCase) ExportCSV(ctx context.Context, actor dto.Principal, in dto.RunQueryRequest) ([]byte, error) {
	target, err := uc.resolve(ctx, actor, in.QueryID, in.ConnectionID, in.SQL)
	if err != nil {
		return nil, err
	}
	filters := sqlquery.NormalizeFilters(toFilters(in.Filters))
	var buf bytes.Buffer
	buf.WriteString("\ufeff")
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	header := false
	for offset := 0; offset < exportMaxRows; offset += sqlquery.HardMaxRows {
		page, err := uc.exec.Query(ctx, target.conn, target.password, ports.SQLRequest{SQL: target.sql, Filters: filters, Offset: offset, Limit: sqlquery.HardMaxRows})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
		if !header {
			if err := w.Write(page.Columns); err != nil {
				return nil, err
			}
			header = true
		}
		for _, row := range page.Rows {
			rec := make([]string, len(row))
			for i, v := range row {
				rec[i] = cellString(v)
			}
			if err := w.Write(rec); err != nil {
				return nil, err
			}
		}
		if !page.HasMore {
			break
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// PurgeCache borra las entradas vencidas de la caché de resultados.
func (uc *SQLHubUseCase) PurgeCache(ctx context.Context) (int64, error) {
	n, err := uc.repo.PurgeExpiredCache(ctx, uc.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		uc.log.Info().Int64("purged", n).Msg("caché de consultas purgada")
	}
	return n, nil
}

type runTarget struct {
	conn     *entity.SQLConnection
	query    *entity.SavedQuery
	sql      string
	password string
}

// resolve consulta guardada o ad-hoc. El SQL ad-hoc exige sqlhub.manage.
func (uc *SQLHubUseCase) resolve(ctx context.Context, actor dto.Principal, queryID, connectionID, rawSQL string) (*runTarget, error) {
	t := &runTarget{}
	switch {
	case queryID != "":
		q, err := uc.mustQuery(ctx, queryID)
		if err != nil {
			return nil, err
		}
		t.query = q
		connectionID, rawSQL = q.ConnectionID, q.SQL
	case connectionID != "" && strings.TrimSpace(rawSQL) != "":
		if !actor.Can(entity.PermSQLHubManage) {
			return nil, domain.ErrForbidden
		}
	default:
		return nil, fmt.Errorf("%w: informe a consulta ou a conexão e o SQL", domain.ErrInvalidInput)
	}
	sql, err := sqlquery.EnsureSelect(rawSQL)
	if err != nil {
		return nil, err
	}
	conn, err := uc.mustConnection(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if !conn.Active {
		return nil, fmt.Errorf("%w: conexão inativa", domain.ErrConflict)
	}
	pw, err := uc.password(conn)
	if err != nil {
		return nil, err
	}
	t.conn, t.sql, t.password = conn, sql, pw
	return t, nil
}

func (uc *SQLHubUseCase) mustConnection(ctx context.Context, id string) (*entity.SQLConnection, error) {
	c, err := uc.repo.GetConnection(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: conexão", domain.ErrNotFound)
	}
	return c, nil
}

func (uc *SQLHubUseCase) mustQuery(ctx context.Context, id string) (*entity.SavedQuery, error) {
	q, err := uc.repo.GetQuery(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("%w: consulta", domain.ErrNotFound)
	}
	return q, nil
}

// paramsHash sha256 del SQL y de los parámetros de la página.
func paramsHash(sql string, filters []sqlquery.Filter, offset, limit int) string {
	payload, _ := json.Marshal(struct {
		SQL     string            `json:"sql"`
		Filters []sqlquery.Filter `json:"filters"`
		Offset  int               `json:"offset"`
		Limit   int               `json:"limit"`
	}{sql, filters, offset, limit})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func toFilters(in []dto.FilterRequest) []sqlquery.Filter {
	out := make([]sqlquery.Filter, 0, len(in))
	for _, f := range in {
		out = append(out, sqlquery.Filter{Field: f.Field, Op: f.Op, Value: f.Value})
	}
	return out
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(t)
	}
}

// decodeCachedPage decodifica con UseNumber: enteros como int64 (sin pasar por float64),
// el resto de números como float64.
func decodeCachedPage(payload []byte) (*ports.SQLPage, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var page ports.SQLPage
	if err := dec.Decode(&page); err != nil {
		return nil, err
	}
	for _, row := range page.Rows {
		for i, cell := range row {
			n, ok := cell.(json.Number)
			if !ok {
				continue
			}
			if v, err := n.Int64(); err == nil {
				row[i] = v
			} else if f, err := n.Float64(); err == nil {
				row[i] = f
			}
		}
	}
	return &page, nil
}

func pageToResponse(p *ports.SQLPage, limit, offset int, cached bool) *dto.RunQueryResponse {
	rows := p.Rows
	if rows == nil {
		rows = [][]any{}
	}
	return &dto.RunQueryResponse{Columns: p.Columns, Rows: rows, HasMore: p.HasMore, Limit: limit, Offset: offset, Cached: cached}
}

func connectionToResponse(c *entity.SQLConnection) *dto.SQLConnectionResponse {
	return &dto.SQLConnectionResponse{
		ID:          c.ID,
		Name:        c.Name,
		Engine:      c.Engine,
		Host:        c.Host,
		Port:        c.Port,
		Database:    c.Database,
		User:        c.User,
		Options:     c.Options,
		Active:      c.Active,
		HasPassword: c.PasswordEnc != "",
		UpdatedAt:   c.UpdatedAt,
	}
}

func queryToResponse(q *entity.SavedQuery) *dto.SavedQueryResponse {
	return &dto.SavedQueryResponse{
		ID:           q.ID,
		ConnectionID: q.ConnectionID,
		Name:         q.Name,
		SQL:          q.SQL,
		Description:  q.Description,
		DefaultLimit: q.DefaultLimit,
		UpdatedAt:    q.UpdatedAt,
	}
}
