package ports

import "github.com/jhoicas/portal-intranet/internal/domain/entity"

// ReportRenderer genera PDFs de relatórios.
type ReportRenderer interface {
	FormResponses(form *entity.Form, responses []*entity.FormResponse) ([]byte, error)
	EPIDeliveries(title string, deliveries []*entity.EPIDelivery) ([]byte, error)
}
