package dto

import "github.com/jhoicas/portal-intranet/pkg/jwt"

// Principal usuario autenticado que ejecuta la operación (derivado del JWT).
type Principal struct {
	UserID      string
	Username    string
	Role        string
	Permissions []string
}

// PrincipalFromClaims construye el principal a partir de los claims validados.
func PrincipalFromClaims(c *jwt.Claims) Principal {
	if c == nil {
		return Principal{}
	}
	return Principal{UserID: c.UserID, Username: c.Username, Role: c.Role, Permissions: c.Permissions}
}

// IsSuperuser indica si el principal es superusuario.
func (p Principal) IsSuperuser() bool {
	return p.Role == jwt.RoleSuperuser
}

// Can indica si el principal tiene el permiso (el superuser tiene todos).
func (p Principal) Can(perm string) bool {
	if p.IsSuperuser() {
		return true
	}
	for _, x := range p.Permissions {
		if x == perm {
			return true
		}
	}
	return false
}

// PermissionSet permisos como conjunto.
func (p Principal) PermissionSet() map[string]bool {
	out := make(map[string]bool, len(p.Permissions))
	for _, x := range p.Permissions {
		out[x] = true
	}
	return out
}
