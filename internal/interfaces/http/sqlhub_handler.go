package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/usecase"
)

// SQLHubHandler conexões externas, consultas salvas e execução read-only.
type SQLHubHandler struct {
	uc *usecase.SQLHubUseCase
}

// NewSQLHubHandler construye el handler.
func NewSQLHubHandler(uc *usecase.SQLHubUseCase) *SQLHubHandler {
	return &SQLHubHandler{uc: uc}
}

// CreateConnection godoc
// @Summary      Cadastrar conexão
// @Tags         sqlhub
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SQLConnectionRequest  true  "Conexão"
// @Success      201   {object}  dto.SQLConnectionResponse
// @Router       /api/sqlhub/connections [post]
func (h *SQLHubHandler) CreateConnection(c *fiber.Ctx) error {
	var in dto.SQLConnectionRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreateConnection(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateConnection godoc
// @Summary      Editar conexão (senha vazia mantém a atual)
// @Tags         sqlhub
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID da conexão"
// @Param        body  body  dto.SQLConnectionRequest  true  "Conexão"
// @Success      200   {object}  dto.SQLConnectionResponse
// @Router       /api/sqlhub/connections/{id} [put]
func (h *SQLHubHandler) UpdateConnection(c *fiber.Ctx) error {
	var in dto.SQLConnectionRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateConnection(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteConnection godoc
// @Summary      Excluir conexão
// @Tags         sqlhub
// @Security     Bearer
// @Param        id  path  string  true  "ID da conexão"
// @Success      204
// @Router       /api/sqlhub/connections/{id} [delete]
func (h *SQLHubHandler) DeleteConnection(c *fiber.Ctx) error {
	if err := h.uc.DeleteConnection(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListConnections godoc
// @Summary      Listar conexões
// @Tags         sqlhub
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.SQLConnectionResponse
// @Router       /api/sqlhub/connections [get]
func (h *SQLHubHandler) ListConnections(c *fiber.Ctx) error {
	out, err := h.uc.ListConnections(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// TestConnection godoc
// @Summary      Testar conexão
// @Tags         sqlhub
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID da conexão"
// @Success      200  {object}  dto.MessageResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/sqlhub/connections/{id}/test [post]
func (h *SQLHubHandler) TestConnection(c *fiber.Ctx) error {
	if err := h.uc.TestConnection(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "conexão OK"})
}

// CreateQuery godoc
// @Summary      Salvar consulta
// @Tags         sqlhub
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SavedQueryRequest  true  "Consulta"
// @Success      201   {object}  dto.SavedQueryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sqlhub/queries [post]
func (h *SQLHubHandler) CreateQuery(c *fiber.Ctx) error {
	var in dto.SavedQueryRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.CreateQuery(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateQuery godoc
// @Summary      Editar consulta salva
// @Tags         sqlhub
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID da consulta"
// @Param        body  body  dto.SavedQueryRequest  true  "Consulta"
// @Success      200   {object}  dto.SavedQueryResponse
// @Router       /api/sqlhub/queries/{id} [put]
func (h *SQLHubHandler) UpdateQuery(c *fiber.Ctx) error {
	var in dto.SavedQueryRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateQuery(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteQuery godoc
// @Summary      Excluir consulta salva
// @Tags         sqlhub
// @Security     Bearer
// @Param        id  path  string  true  "ID da consulta"
// @Success      204
// @Router       /api/sqlhub/queries/{id} [delete]
func (h *SQLHubHandler) DeleteQuery(c *fiber.Ctx) error {
	if err := h.uc.DeleteQuery(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListQueries godoc
// @Summary      Consultas salvas
// @Tags         sqlhub
// @Security     Bearer
// @Produce      json
// @Param        connection_id  query  string  false  "Filtrar por conexão"
// @Success      200  {array}  dto.SavedQueryResponse
// @Router       /api/sqlhub/queries [get]
func (h *SQLHubHandler) ListQueries(c *fiber.Ctx) error {
	out, err := h.uc.ListQueries(c.UserContext(), c.Query("connection_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Run godoc
// @Summary      Executar consulta (salva ou ad-hoc, só SELECT)
// @Tags         sqlhub
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RunQueryRequest  true  "Consulta, filtros e paginação"
// @Success      200   {object}  dto.RunQueryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/sqlhub/run [post]
func (h *SQLHubHandler) Run(c *fiber.Ctx) error {
	var in dto.RunQueryRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.Run(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Distinct godoc
// @Summary      Valores distintos de uma coluna
// @Tags         sqlhub
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID da consulta"
// @Param        column  query  string  true   "Coluna"
// @Param        q       query  string  false  "Contém"
// @Success      200  {array}  string
// @Router       /api/sqlhub/queries/{id}/distinct [get]
func (h *SQLHubHandler) Distinct(c *fiber.Ctx) error {
	var in dto.DistinctRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.Distinct(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ExportCSV godoc
// @Summary      Exportar resultado em CSV
// @Tags         sqlhub
// @Security     Bearer
// @Accept       json
// @Produce      text/csv
// @Param        body  body  dto.RunQueryRequest  true  "Consulta e filtros"
// @Success      200  {file}  binary
// @Router       /api/sqlhub/export [post]
func (h *SQLHubHandler) ExportCSV(c *fiber.Ctx) error {
	var in dto.RunQueryRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	data, err := h.uc.ExportCSV(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return sendAttachment(c, data, "text/csv; charset=utf-8", "consulta.csv")
}
