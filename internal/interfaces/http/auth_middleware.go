package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/pkg/jwt"
)

// Locals keys del usuario autenticado en Fiber.
const (
	LocalUserID    = "user_id"
	LocalRole      = "role"
	LocalPrincipal = "principal"
)

// AuthMiddleware valida el Bearer Token JWT y deja el principal en c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "header Authorization obrigatório"})
		}
		claims, code, msg := parseBearer(jwtSecret, authHeader)
		if claims == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: code, Message: msg})
		}
		setPrincipal(c, claims)
		return c.Next()
	}
}

// OptionalAuth carga el principal si viene un token válido; sin token sigue como anónimo.
// Un token presente pero inválido responde 401.
func OptionalAuth(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}
		claims, code, msg := parseBearer(jwtSecret, authHeader)
		if claims == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: code, Message: msg})
		}
		setPrincipal(c, claims)
		return c.Next()
	}
}

func parseBearer(secret, header string) (*jwt.Claims, string, string) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, "INVALID_TOKEN", "formato: Bearer <token>"
	}
	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return nil, "MISSING_TOKEN", "token vazio"
	}
	claims, err := jwt.Parse(secret, tokenString)
	if err != nil || claims.UserID == "" {
		return nil, "INVALID_TOKEN", "token inválido ou expirado"
	}
	return claims, "", ""
}

func setPrincipal(c *fiber.Ctx, claims *jwt.Claims) {
	p := dto.PrincipalFromClaims(claims)
	c.Locals(LocalUserID, p.UserID)
	c.Locals(LocalRole, p.Role)
	c.Locals(LocalPrincipal, p)
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserID).(string)
	return s
}

// GetRole devuelve el rol del token.
func GetRole(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalRole).(string)
	return s
}

// GetPrincipal devuelve el principal completo; ok=false si la petición es anónima.
func GetPrincipal(c *fiber.Ctx) (dto.Principal, bool) {
	p, ok := c.Locals(LocalPrincipal).(dto.Principal)
	return p, ok
}

// RequireRole restringe la ruta a los roles indicados. Debe ir DESPUÉS de AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "token sem papel"})
		}
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "papel sem acesso a este recurso"})
	}
}
