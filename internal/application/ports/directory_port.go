package ports

import "context"

// DirectoryUser atributos leídos del directorio tras un bind exitoso.
type DirectoryUser struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
}

// Directory autenticación contra Active Directory.
// Credenciales inválidas -> domain.ErrUnauthorized; servidor caído -> domain.ErrDirectoryOffline.
type Directory interface {
	Authenticate(ctx context.Context, username, password string) (*DirectoryUser, error)
}
