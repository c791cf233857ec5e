package entity

import "time"

// Estados del ciclo de vida de un documento.
const (
	DocStatusAwaitingAnalysis = "aguardando_analise"
	DocStatusAnalysisDone     = "analise_concluida"
	DocStatusAwaitingDrafter  = "aguardando_elaborador"
	DocStatusAwaitingApprover = "aguardando_aprovador1"
	DocStatusApproved         = "aprovado"
	DocStatusRejected         = "reprovado"
)

// Tipos de documento según el archivo editable.
const (
	DocTypePDF            = "pdf"
	DocTypeSpreadsheet    = "spreadsheet"
	DocTypePDFSpreadsheet = "pdf_spreadsheet"
)

// MaxRevision última revisión admitida por documento.
const MaxRevision = 100

// Document una revisión de un documento. Todas las revisiones comparten Codigo.
type Document struct {
	ID              string
	Codigo          string
	Name            string
	Revision        int
	Status          string
	CategoryID      string
	DocumentType    string
	OriginalFile    string // ruta relativa al MEDIA_ROOT
	PDFFile         string
	RootID          *string // revisión de la que deriva
	RequesterID     string
	AnalystID       *string
	DrafterID       *string
	ApproverID      *string
	AnalyzedAt      *time.Time
	DrafterAt       *time.Time
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
	RejectionReason string
	IsActive        bool
	TextContent     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsTerminal indica si la revisión ya terminó su ciclo.
func (d *Document) IsTerminal() bool {
	return d.Status == DocStatusApproved || d.Status == DocStatusRejected
}

// Category agrupa documentos. Una categoría bloqueada no acepta nuevos documentos.
type Category struct {
	ID        string
	Name      string
	Blocked   bool
	CreatedAt time.Time
}

// DocumentNameChange historial de renombrados.
type DocumentNameChange struct {
	ID         string
	DocumentID string
	OldName    string
	NewName    string
	UserID     *string
	At         time.Time
}

// DocumentAccess registro de visualización.
type DocumentAccess struct {
	ID         string
	DocumentID string
	UserID     string
	Username   string
	At         time.Time
}

// DeletedDocument auditoría de borrados.
type DeletedDocument struct {
	ID           string
	UserID       string
	DocumentName string
	Revision     int
	At           time.Time
}

// DocumentFilter filtros para listados.
type DocumentFilter struct {
	Name       string
	CategoryID string
	Status     string
	Active     *bool
	Limit      int
	Offset     int
}
