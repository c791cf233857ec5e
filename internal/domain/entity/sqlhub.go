package entity

import "time"

// Motores suportados pela ponte SQL.
const (
	EngineFirebird   = "firebird"
	EnginePostgreSQL = "postgresql"
	EngineMySQL      = "mysql"
	EngineMSSQL      = "mssql"
)

// DefaultQueryLimit limite padrão de consultas salvas.
const DefaultQueryLimit = 1000

// SQLConnection banco externo consultável.
type SQLConnection struct {
	ID          string
	Name        string
	Engine      string
	Host        string
	Port        int
	Database    string
	User        string
	PasswordEnc string // "fe:..." selado
	Options     string // query string extra do DSN (ex. charset=WIN1252)
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SavedQuery consulta nomeada; única por (ConnectionID, Name).
type SavedQuery struct {
	ID           string
	ConnectionID string
	Name         string
	SQL          string
	Description  string
	DefaultLimit int
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// QueryCacheEntry resultado cacheado por hash de parâmetros.
type QueryCacheEntry struct {
	QueryID    string
	ParamsHash string
	Payload    []byte
	ExpiresAt  time.Time
}
