package dto

import "time"

// EPIFilterRequest filtros da listagem.
type EPIFilterRequest struct {
	PageRequest
	Status    string `query:"status"`
	Unit      string `query:"unit"`
	Contract  string `query:"contract"`
	StockCode string `query:"stock_code"`
	Sequence  string `query:"sequence"`
	Employee  string `query:"employee"`
	From      string `query:"from"`
	To        string `query:"to"`
}

// EPIWriteOffRequest baixa de entregas.
type EPIWriteOffRequest struct {
	IDs      []string `json:"ids" validate:"required,min=1,dive,uuid"`
	Sequence string   `json:"sequence" validate:"required,max=50"`
}

// EPIRevertRequest reversão de baixa.
type EPIRevertRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,uuid"`
}

// EPIDeliveryResponse entrega.
type EPIDeliveryResponse struct {
	ID                    string     `json:"id"`
	Unit                  string     `json:"unit"`
	Contract              string     `json:"contract"`
	EmployeeName          string     `json:"employee_name"`
	CostCenter            string     `json:"cost_center"`
	CostCenterDescription string     `json:"cost_center_description"`
	EPI                   string     `json:"epi"`
	EPIDescription        string     `json:"epi_description"`
	StockCode             string     `json:"stock_code"`
	Lot                   string     `json:"lot"`
	Quantity              int        `json:"quantity"`
	DeliveredAt           time.Time  `json:"delivered_at"`
	ReturnedAt            *time.Time `json:"returned_at,omitempty"`
	Status                string     `json:"status"`
	ERPSequence           *string    `json:"erp_sequence,omitempty"`
	ERPWrittenOffAt       *time.Time `json:"erp_written_off_at,omitempty"`
}

// EPIListResponse página de entregas.
type EPIListResponse struct {
	Items []EPIDeliveryResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// EPIImportResponse resultado da importação do ERP.
type EPIImportResponse struct {
	Rows       int      `json:"rows"`
	WrittenOff int      `json:"written_off"`
	NotFound   int      `json:"not_found"`
	Errors     []string `json:"errors,omitempty"`
}
