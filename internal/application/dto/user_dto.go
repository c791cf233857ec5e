package dto

import "time"

// LoginRequest credenciales (usuario AD o local).
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse token JWT y datos del usuario.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// MeResponse usuario actual con permisos efectivos.
type MeResponse struct {
	User        UserResponse `json:"user"`
	Permissions []string     `json:"permissions"`
	GroupIDs    []string     `json:"group_ids"`
}

// CreateUserRequest alta de usuario local (password en texto, se hashea en use case).
type CreateUserRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=150"`
	Email       string `json:"email" validate:"omitempty,email"`
	FirstName   string `json:"first_name" validate:"max=150"`
	LastName    string `json:"last_name" validate:"max=150"`
	Password    string `json:"password" validate:"required,min=8"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

// UpdateUserRequest cambios de datos del usuario.
type UpdateUserRequest struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	FirstName   *string `json:"first_name" validate:"omitempty,max=150"`
	LastName    *string `json:"last_name" validate:"omitempty,max=150"`
	IsStaff     *bool   `json:"is_staff"`
	IsSuperuser *bool   `json:"is_superuser"`
}

// SetActiveRequest activa o inactiva.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// SetPasswordRequest nueva contraseña (sólo cuentas locales).
type SetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// PermissionsRequest lista de codenames.
type PermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"dive,permission"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	Source      string     `json:"source"`
	IsActive    bool       `json:"is_active"`
	IsStaff     bool       `json:"is_staff"`
	IsSuperuser bool       `json:"is_superuser"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UserListResponse página de usuarios.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// GroupRequest alta o renombre de grupo.
type GroupRequest struct {
	Name string `json:"name" validate:"required,max=150"`
}

// GroupResponse grupo con permisos.
type GroupResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

// PermissionResponse entrada del catálogo.
type PermissionResponse struct {
	Codename    string `json:"codename"`
	Description string `json:"description"`
}
