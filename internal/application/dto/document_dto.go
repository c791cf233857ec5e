package dto

import "time"

// Upload archivo recibido en multipart, ya guardado en disco temporal o en memoria.
type Upload struct {
	FileName string
	Data     []byte
}

// CreateDocumentRequest alta de documento (revisión 0).
type CreateDocumentRequest struct {
	Name       string  `form:"name" validate:"required,max=255"`
	CategoryID string  `form:"category_id" validate:"required,uuid"`
	File       Upload  `form:"-"`
	PDF        *Upload `form:"-"`
}

// NewRevisionRequest nueva revisión de un código existente.
type NewRevisionRequest struct {
	Name string `form:"name" validate:"omitempty,max=255"`
	File Upload `form:"-"`
}

// TransitionRequest acción del flujo de aprobación.
type TransitionRequest struct {
	Action     string `json:"action" validate:"required,oneof=concluir_analise enviar_elaborador aprovar_elaborador aprovar reprovar"`
	DrafterID  string `json:"drafter_id" validate:"omitempty,uuid"`
	ApproverID string `json:"approver_id" validate:"omitempty,uuid"`
	Reason     string `json:"reason" validate:"max=2000"`
}

// RenameRequest renombrado.
type RenameRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// DocumentFilterRequest filtros de listado.
type DocumentFilterRequest struct {
	PageRequest
	Name       string `query:"name"`
	CategoryID string `query:"category_id"`
	Status     string `query:"status"`
}

// DocumentResponse revisión de documento.
type DocumentResponse struct {
	ID              string     `json:"id"`
	Codigo          string     `json:"codigo"`
	Name            string     `json:"name"`
	Revision        int        `json:"revision"`
	Status          string     `json:"status"`
	CategoryID      string     `json:"category_id"`
	DocumentType    string     `json:"document_type"`
	HasPDF          bool       `json:"has_pdf"`
	RootID          *string    `json:"root_id,omitempty"`
	RequesterID     string     `json:"requester_id"`
	AnalystID       *string    `json:"analyst_id,omitempty"`
	DrafterID       *string    `json:"drafter_id,omitempty"`
	ApproverID      *string    `json:"approver_id,omitempty"`
	AnalyzedAt      *time.Time `json:"analyzed_at,omitempty"`
	DrafterAt       *time.Time `json:"drafter_at,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	IsActive        bool       `json:"is_active"`
	Actions         []string   `json:"actions,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// DocumentListResponse página de documentos.
type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// NameChangeResponse entrada del historial de nombres.
type NameChangeResponse struct {
	OldName string    `json:"old_name"`
	NewName string    `json:"new_name"`
	UserID  *string   `json:"user_id,omitempty"`
	At      time.Time `json:"at"`
}

// AccessResponse visualización registrada.
type AccessResponse struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

// CategoryRequest alta o edición de categoría.
type CategoryRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Blocked bool   `json:"blocked"`
}

// CategoryResponse categoría.
type CategoryResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Blocked bool   `json:"blocked"`
}
