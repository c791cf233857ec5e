package ports

import (
	"context"

	"github.com/jhoicas/portal-intranet/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Documents     repository.DocumentRepository
	Forms         repository.FormRepository
	EPI           repository.EPIRepository
	Notifications repository.NotificationRepository
}

// TxRunner ejecuta fn dentro de una transacción; error en fn hace rollback.
type TxRunner interface {
	Run(ctx context.Context, fn func(r TxRepos) error) error
}
