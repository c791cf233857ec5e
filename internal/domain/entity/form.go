package entity

import "time"

// Tipos de campo de formulário.
const (
	FieldShortText = "texto_curto"
	FieldParagraph = "paragrafo"
	FieldChoice    = "multipla"
	FieldCheckbox  = "checkbox"
	FieldDropdown  = "lista"
	FieldScale     = "escala"
	FieldDate      = "data"
	FieldTime      = "hora"
	FieldFile      = "arquivo"
)

// Público-alvo da exibição na home.
const (
	TargetAll    = "ALL"
	TargetHalf   = "50"
	TargetManual = "MAN"
)

// IsValidFieldType indica si el tipo de campo es conocido.
func IsValidFieldType(t string) bool {
	switch t {
	case FieldShortText, FieldParagraph, FieldChoice, FieldCheckbox, FieldDropdown,
		FieldScale, FieldDate, FieldTime, FieldFile:
		return true
	}
	return false
}

// Form formulário dinâmico. Version sobe a cada alteração do esquema.
type Form struct {
	ID                 string
	Title              string
	Description        string
	OwnerID            string
	Public             bool
	OpensAt            *time.Time
	ClosesAt           *time.Time
	ResponseLimit      int // 0 = sem limite
	Version            int
	AcceptingResponses bool
	ShowOnHome         bool
	CollectName        bool
	RepeatEveryMinutes int // 0 = responde uma vez
	Target             string
	TargetUsers        []string
	ResponseCount      int // preenchido pelo repositório
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Fields             []FormField
}

// FileValidation configuração de campos do tipo arquivo (validacao_json).
type FileValidation struct {
	MaxFiles   int      `json:"max_arquivos,omitempty"`
	MaxMB      int      `json:"max_mb,omitempty"`
	FreeTypes  *bool    `json:"tipos_livres,omitempty"`
	Categories []string `json:"categorias,omitempty"`
}

// FormField pergunta do formulário.
type FormField struct {
	ID         string
	FormID     string
	Label      string
	Help       string
	Type       string
	Order      int
	Required   bool
	Options    []string
	Validation FileValidation
	Active     bool
}

// FormCollaborator usuário com acesso de edição/visualização a um formulário alheio.
type FormCollaborator struct {
	FormID  string
	UserID  string
	CanEdit bool
	CanView bool
}

// FormResponse resposta imutável, atada à versão do esquema vigente no envio.
type FormResponse struct {
	ID            string
	FormID        string
	UserID        *string
	IP            string
	FormVersion   int
	CollectedName string
	CreatedAt     time.Time
	Values        []FormValue
}

// FormValue valor de um campo numa resposta.
type FormValue struct {
	ID       string
	FieldID  string
	Text     string
	FilePath string
	FileName string
}

// FormUserState controle de exibição na home por usuário.
type FormUserState struct {
	FormID         string
	UserID         string
	LastAnsweredAt *time.Time
	Dismissed      bool
}
