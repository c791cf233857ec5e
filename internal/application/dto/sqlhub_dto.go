package dto

import "time"

// SQLConnectionRequest alta o edición de conexión. Password vacío conserva el anterior.
type SQLConnectionRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Engine   string `json:"engine" validate:"required,oneof=firebird postgresql mysql mssql"`
	Host     string `json:"host" validate:"required,max=255"`
	Port     int    `json:"port" validate:"min=0,max=65535"`
	Database string `json:"database" validate:"required,max=255"`
	User     string `json:"user" validate:"required,max=100"`
	Password string `json:"password"`
	Options  string `json:"options" validate:"max=500"`
	Active   bool   `json:"active"`
}

// SQLConnectionResponse conexión (sin password).
type SQLConnectionResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Engine      string    `json:"engine"`
	Host        string    `json:"host"`
	Port        int       `json:"port"`
	Database    string    `json:"database"`
	User        string    `json:"user"`
	Options     string    `json:"options,omitempty"`
	Active      bool      `json:"active"`
	HasPassword bool      `json:"has_password"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SavedQueryRequest alta o edición de consulta guardada.
type SavedQueryRequest struct {
	ConnectionID string `json:"connection_id" validate:"required,uuid"`
	Name         string `json:"name" validate:"required,max=150"`
	SQL          string `json:"sql" validate:"required"`
	Description  string `json:"description"`
	DefaultLimit int    `json:"default_limit" validate:"min=0"`
}

// SavedQueryResponse consulta guardada.
type SavedQueryResponse struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"connection_id"`
	Name         string    `json:"name"`
	SQL          string    `json:"sql"`
	Description  string    `json:"description,omitempty"`
	DefaultLimit int       `json:"default_limit"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FilterRequest filtro sobre una columna del resultado.
type FilterRequest struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value string `json:"value"`
}

// RunQueryRequest ejecución de consulta guardada o ad-hoc.
type RunQueryRequest struct {
	QueryID      string          `json:"query_id"`
	ConnectionID string          `json:"connection_id"`
	SQL          string          `json:"sql"`
	Filters      []FilterRequest `json:"filters"`
	Limit        string          `json:"limit"`
	Offset       int             `json:"offset" validate:"min=0"`
	NoCache      bool            `json:"no_cache"`
}

// RunQueryResponse página de resultados.
type RunQueryResponse struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	HasMore bool     `json:"has_more"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
	Cached  bool     `json:"cached"`
}

// DistinctRequest opciones distintas de una columna.
type DistinctRequest struct {
	Column string `query:"column"`
	Search string `query:"q"`
}
