package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")

	// Documentos
	ErrInvalidTransition = errors.New("transición de estado no permitida")
	ErrConversionFailed  = errors.New("falla en la conversión del documento")
	ErrCategoryBlocked   = errors.New("categoría bloqueada")

	// Formularios
	ErrFormUnavailable = errors.New("formulario no disponible")

	// SQL hub
	ErrNotSelect = errors.New("sólo se permiten consultas SELECT")

	// Integraciones externas
	ErrUpstream         = errors.New("falla en el servicio externo")
	ErrNotConfigured    = errors.New("integración no configurada")
	ErrDirectoryOffline = errors.New("directorio LDAP indisponible")
	// ErrPartialSync la sincronización guardó parte de los datos; el resto falló.
	ErrPartialSync = errors.New("sincronização parcial")
)
