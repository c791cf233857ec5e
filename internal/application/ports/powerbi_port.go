package ports

import (
	"context"
	"time"
)

// EmbedInfo datos para embeber un relatório.
type EmbedInfo struct {
	EmbedURL  string    `json:"embed_url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	DatasetID string    `json:"dataset_id,omitempty"`
}

// PowerBIClient API REST de Power BI con service principal.
type PowerBIClient interface {
	EmbedToken(ctx context.Context, workspaceID, reportID string) (*EmbedInfo, error)
	DatasetID(ctx context.Context, workspaceID, reportID string) (string, error)
	// LastRefresh fin del último refresh Completed; nil si no hay ninguno.
	LastRefresh(ctx context.Context, workspaceID, datasetID string) (*time.Time, error)
	TriggerRefresh(ctx context.Context, workspaceID, datasetID string) error
}

// KeyLocker lock de corta duración por clave (no es un mutex: expira solo).
type KeyLocker interface {
	TryLock(key string) bool
}
