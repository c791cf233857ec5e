package entity

import (
	"regexp"
	"strings"
	"time"
)

var embedIDsRe = regexp.MustCompile(`(?i)/groups/([0-9a-f-]{36})/reports/([0-9a-f-]{36})`)

// BIReport relatório Power BI registrado no portal.
type BIReport struct {
	ID            string
	Title         string
	EmbedCode     string // URL/iframe original colado pelo administrador
	WorkspaceID   string
	ReportID      string
	DatasetID     string
	AllUsers      bool
	AllowedUsers  []string
	AllowedGroups []string
	LastUpdated   *time.Time
	NextUpdate    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CanAccess regra de acesso: todos, usuário listado ou algum grupo listado.
func (r *BIReport) CanAccess(userID string, groupIDs []string) bool {
	if r.AllUsers {
		return true
	}
	for _, u := range r.AllowedUsers {
		if u == userID {
			return true
		}
	}
	for _, allowed := range r.AllowedGroups {
		for _, g := range groupIDs {
			if allowed == g {
				return true
			}
		}
	}
	return false
}

// BIAccess log de abertura de relatório.
type BIAccess struct {
	ID       string
	ReportID string
	UserID   string
	Username string
	At       time.Time
}

// BISavedView estado salvo (filtros/página) de um relatório.
type BISavedView struct {
	ID         string
	ReportID   string
	OwnerID    string
	Name       string
	State      []byte // JSON opaco produzido pelo front
	IsDefault  bool
	ShareToken *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ParseEmbedIDs extrai (workspace, report) de um embed code ".../groups/<guid>/reports/<guid>", em minúsculas.
func ParseEmbedIDs(embed string) (string, string) {
	m := embedIDsRe.FindStringSubmatch(embed)
	if m == nil {
		return "", ""
	}
	return strings.ToLower(m[1]), strings.ToLower(m[2])
}
