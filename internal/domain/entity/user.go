package entity

import (
	"strings"
	"time"
)

// Orígenes de la cuenta.
const (
	UserSourceLocal = "local"
	UserSourceAD    = "ad"
)

// User usuario del portal. Cuentas AD se crean/actualizan en el primer login.
type User struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string // bcrypt; vacío para cuentas AD
	Source       string // local | ad
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName nombre completo, o el username si no hay nombre.
func (u *User) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// Group agrupa usuarios y permisos.
type Group struct {
	ID          string
	Name        string
	Permissions []string
	CreatedAt   time.Time
}

// Permission codename calificado por app, ej. "documentos.can_analyze".
type Permission struct {
	Codename    string
	Description string
}
