package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
)

// RequirePermission deja pasar si el principal tiene alguno de los permisos (el superuser
// tiene todos). Debe usarse DESPUÉS de AuthMiddleware.
//
//   - 401 → no hay principal en el contexto.
//   - 403 → ninguno de los permisos está en el token.
func RequirePermission(perms ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := GetPrincipal(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "autenticação obrigatória"})
		}
		for _, perm := range perms {
			if p.Can(perm) {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Code:    "PERMISSION_DENIED",
			Message: "permissão necessária: " + strings.Join(perms, " ou "),
		})
	}
}
