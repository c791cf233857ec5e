package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	zlog "github.com/rs/zerolog/log"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/validation"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/form"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// orden importa: los errores más específicos primero
var errorTable = []errorMapping{
	{domain.ErrUserNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrEmailAlreadyExists, fiber.StatusConflict, "EMAIL_EXISTS"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrCategoryBlocked, fiber.StatusBadRequest, "CATEGORY_BLOCKED"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrNotSelect, fiber.StatusBadRequest, "NOT_SELECT"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrFormUnavailable, fiber.StatusGone, "FORM_UNAVAILABLE"},
	{domain.ErrConversionFailed, fiber.StatusUnprocessableEntity, "CONVERSION_FAILED"},
	{domain.ErrNotConfigured, fiber.StatusServiceUnavailable, "NOT_CONFIGURED"},
	{domain.ErrDirectoryOffline, fiber.StatusServiceUnavailable, "DIRECTORY_OFFLINE"},
	{domain.ErrUpstream, fiber.StatusBadGateway, "UPSTREAM"},
	{context.DeadlineExceeded, fiber.StatusGatewayTimeout, "TIMEOUT"},
}

// writeError traduce un error de la aplicación a status + dto.ErrorResponse.
// Errores no mapeados responden 500 sin exponer el detalle interno.
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errInvalidBody):
		return badRequest(c, "INVALID_BODY", err.Error())
	case errors.Is(err, errInvalidQuery):
		return badRequest(c, "INVALID_QUERY", err.Error())
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: verrs.Error(), Details: verrs})
	}
	var ferrs *form.ValidationErrors
	if errors.As(err, &ferrs) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "FORM_INVALID", Message: strings.Join(ferrs.Global, "; "), Details: ferrs})
	}
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	zlog.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("erro não mapeado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "erro interno"})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

var (
	errInvalidBody  = errors.New("corpo da requisição inválido")
	errInvalidQuery = errors.New("parâmetros de consulta inválidos")
)

// bindJSON parsea el body y valida los tags `validate`. El error va directo a writeError.
func bindJSON(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return errInvalidBody
	}
	return validation.Struct(out)
}

// bindQuery parsea la query string y valida.
func bindQuery(c *fiber.Ctx, out any) error {
	if err := c.QueryParser(out); err != nil {
		return errInvalidQuery
	}
	return validation.Struct(out)
}

// ErrorHandler handler global de Fiber: rutas inexistentes, body demasiado grande
// y errores que un handler devuelva sin escribir respuesta.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "HTTP_ERROR"
		switch fe.Code {
		case fiber.StatusNotFound:
			code = "ROUTE_NOT_FOUND"
		case fiber.StatusRequestEntityTooLarge:
			code = "BODY_TOO_LARGE"
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		}
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: code, Message: fe.Message})
	}
	return writeError(c, err)
}
