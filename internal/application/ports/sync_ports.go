package ports

import (
	"context"
	"time"

	"github.com/jhoicas/portal-intranet/internal/domain/altforce"
)

// AltForceClient API de pedidos/orçamentos/leads/clientes.
type AltForceClient interface {
	// FetchWindow GET /<resource>?start=<ms>&end=<ms>.
	FetchWindow(ctx context.Context, resource string, start, end time.Time) ([]altforce.Record, error)
	// FetchAll GET /<resource> sin ventana (customers).
	FetchAll(ctx context.Context, resource string) ([]altforce.Record, error)
}

// ContractInfo datos del colaborador por contrato.
type ContractInfo struct {
	Name                  string
	CostCenter            string
	CostCenterDescription string
}

// HRClient API de RH.
type HRClient interface {
	// EPIDeliveries recorre todas las páginas de entregas.
	EPIDeliveries(ctx context.Context) ([]map[string]any, error)
	// Contract datos del contrato; un contrato inexistente devuelve valores vacíos.
	Contract(ctx context.Context, contract string) (ContractInfo, error)
}

// SyncMetrics registra el resultado de cada pase de sincronización.
type SyncMetrics interface {
	ObserveSync(job string, received, created, updated, errors int)
	ObserveWindow(job string)
}
