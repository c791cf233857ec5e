package sqlhub

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/sqlquery"
)

// dialect diferencias de SQL entre motores.
type dialect struct {
	engine string
	driver string
}

func dialectFor(engine string) (dialect, error) {
	switch engine {
	case entity.EnginePostgreSQL:
		return dialect{engine: engine, driver: "pgx"}, nil
	case entity.EngineMySQL:
		return dialect{engine: engine, driver: "mysql"}, nil
	case entity.EngineMSSQL:
		return dialect{engine: engine, driver: "sqlserver"}, nil
	case entity.EngineFirebird:
		return dialect{engine: engine, driver: "firebirdsql"}, nil
	}
	return dialect{}, fmt.Errorf("%w: motor %q não suportado", domain.ErrInvalidInput, engine)
}

func defaultPort(engine string) int {
	switch engine {
	case entity.EnginePostgreSQL:
		return 5432
	case entity.EngineMySQL:
		return 3306
	case entity.EngineMSSQL:
		return 1433
	default:
		return 3050
	}
}

// dsn arma el connection string del driver. Options es una query string extra.
func (d dialect) dsn(c *entity.SQLConnection, password string) (string, error) {
	opts, err := url.ParseQuery(strings.TrimPrefix(c.Options, "?"))
	if err != nil {
		return "", fmt.Errorf("%w: opções de conexão: %v", domain.ErrInvalidInput, err)
	}
	port := c.Port
	if port <= 0 {
		port = defaultPort(d.engine)
	}
	host := net.JoinHostPort(c.Host, strconv.Itoa(port))

	switch d.engine {
	case entity.EnginePostgreSQL:
		if opts.Get("sslmode") == "" {
			opts.Set("sslmode", "disable")
		}
		if opts.Get("connect_timeout") == "" {
			opts.Set("connect_timeout", "5")
		}
		u := url.URL{Scheme: "postgres", User: url.UserPassword(c.User, password), Host: host, Path: "/" + c.Database, RawQuery: opts.Encode()}
		return u.String(), nil

	case entity.EngineMySQL:
		cfg := mysql.NewConfig()
		cfg.User = c.User
		cfg.Passwd = password
		cfg.Net = "tcp"
		cfg.Addr = host
		cfg.DBName = c.Database
		cfg.ParseTime = true
		cfg.Params = map[string]string{}
		for k := range opts {
			cfg.Params[k] = opts.Get(k)
		}
		return cfg.FormatDSN(), nil

	case entity.EngineMSSQL:
		opts.Set("database", c.Database)
		if opts.Get("encrypt") == "" {
			opts.Set("encrypt", "disable")
		}
		u := url.URL{Scheme: "sqlserver", User: url.UserPassword(c.User, password), Host: host, RawQuery: opts.Encode()}
		return u.String(), nil

	default: // firebird: user:pass@host:port/path/to/db.fdb?charset=WIN1252
		if opts.Get("charset") == "" {
			opts.Set("charset", "WIN1252")
		}
		u := url.URL{User: url.UserPassword(c.User, password), Host: host, Path: "/" + strings.TrimPrefix(c.Database, "/"), RawQuery: opts.Encode()}
		return strings.TrimPrefix(u.String(), "//"), nil
	}
}

func (d dialect) pingSQL() string {
	if d.engine == entity.EngineFirebird {
		return "SELECT 1 FROM RDB$DATABASE"
	}
	return "SELECT 1"
}

// placeholder n es 1-based.
func (d dialect) placeholder(n int) string {
	switch d.engine {
	case entity.EnginePostgreSQL:
		return "$" + strconv.Itoa(n)
	case entity.EngineMSSQL:
		return "@p" + strconv.Itoa(n)
	}
	return "?"
}

// asText expresión de la columna convertida a texto para LIKE.
func (d dialect) asText(col string) string {
	switch d.engine {
	case entity.EnginePostgreSQL:
		return "CAST(" + col + " AS TEXT)"
	case entity.EngineMySQL:
		return "CAST(" + col + " AS CHAR)"
	case entity.EngineMSSQL:
		return "CAST(" + col + " AS NVARCHAR(MAX))"
	}
	return "CAST(" + col + " AS VARCHAR(1000))"
}

// paginate agrega offset/limit al SELECT envuelto.
func (d dialect) paginate(sql string, offset, limit int) string {
	switch d.engine {
	case entity.EngineMSSQL:
		return fmt.Sprintf("%s ORDER BY (SELECT NULL) OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", sql, offset, limit)
	case entity.EngineFirebird:
		return fmt.Sprintf("%s ROWS %d TO %d", sql, offset+1, offset+limit)
	}
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", sql, limit, offset)
}

var comparators = map[string]string{
	sqlquery.OpEq:  "=",
	sqlquery.OpNe:  "<>",
	sqlquery.OpGt:  ">",
	sqlquery.OpGte: ">=",
	sqlquery.OpLt:  "<",
	sqlquery.OpLte: "<=",
}

// wrap envuelve el SELECT base y aplica los filtros ya normalizados.
func (d dialect) wrap(base string, filters []sqlquery.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	for _, f := range filters {
		switch f.Op {
		case sqlquery.OpIsNull:
			where = append(where, f.Field+" IS NULL")
		case sqlquery.OpNotNull:
			where = append(where, f.Field+" IS NOT NULL")
		case sqlquery.OpContains, sqlquery.OpStartsWith, sqlquery.OpEndsWith:
			args = append(args, strings.ToUpper(sqlquery.LikePattern(f.Op, f.Value)))
			where = append(where, "UPPER("+d.asText(f.Field)+") LIKE "+d.placeholder(len(args)))
		default:
			cmp, ok := comparators[f.Op]
			if !ok {
				continue
			}
			args = append(args, f.Value)
			where = append(where, f.Field+" "+cmp+" "+d.placeholder(len(args)))
		}
	}
	sql := "SELECT * FROM (\n" + base + "\n) src"
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	return sql, args
}

// distinct opciones distintas de una columna con búsqueda opcional.
func (d dialect) distinct(base, column, search string, limit int) (string, []any) {
	var args []any
	where := column + " IS NOT NULL"
	if search != "" {
		args = append(args, "%"+strings.ToUpper(search)+"%")
		where += " AND UPPER(" + d.asText(column) + ") LIKE " + d.placeholder(1)
	}
	inner := "SELECT DISTINCT " + column + " FROM (\n" + base + "\n) src WHERE " + where
	switch d.engine {
	case entity.EngineMSSQL:
		return strings.Replace(inner, "SELECT DISTINCT ", fmt.Sprintf("SELECT DISTINCT TOP %d ", limit), 1) + " ORDER BY 1", args
	case entity.EngineFirebird:
		return fmt.Sprintf("%s ORDER BY 1 ROWS %d", inner, limit), args
	}
	return fmt.Sprintf("%s ORDER BY 1 LIMIT %d", inner, limit), args
}
