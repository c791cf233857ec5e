package entity

import "time"

// Estados de entrega de EPI frente ao ERP.
const (
	EPIStatusPending    = "Pendente"
	EPIStatusWrittenOff = "Baixado"
)

// EPIDelivery entrega de equipamento de proteção individual.
// Única por (Unit, Contract, EPI, Lot, DeliveredAt).
type EPIDelivery struct {
	ID                    string
	Unit                  string
	Contract              string
	EPI                   string
	StockCode             string // código de estoque no ERP (Tecnicon)
	Lot                   string
	DeliveredAt           time.Time
	ReturnedAt            *time.Time
	Quantity              int
	EmployeeName          string
	EPIDescription        string
	CostCenter            string
	CostCenterDescription string
	Status                string
	ERPSequence           *string
	ERPWrittenOffAt       *time.Time
	Raw                   []byte
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// EPIFilter filtros da listagem. Status vazio ou "todos" não filtra.
type EPIFilter struct {
	Status    string
	Unit      string
	Contract  string
	StockCode string
	Sequence  string
	Employee  string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
