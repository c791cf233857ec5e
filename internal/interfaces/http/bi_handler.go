package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/usecase"
)

// BIHandler relatórios Power BI, refresh e visões salvas.
type BIHandler struct {
	uc *usecase.BIUseCase
}

// NewBIHandler construye el handler.
func NewBIHandler(uc *usecase.BIUseCase) *BIHandler {
	return &BIHandler{uc: uc}
}

// ListForUser godoc
// @Summary      Relatórios visíveis para o usuário
// @Tags         bi
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.BIReportResponse
// @Router       /api/bi/reports [get]
func (h *BIHandler) ListForUser(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	out, err := h.uc.ListForUser(c.UserContext(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListAll godoc
// @Summary      Todos os relatórios (administração)
// @Tags         bi
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.BIReportResponse
// @Router       /api/bi/admin/reports [get]
func (h *BIHandler) ListAll(c *fiber.Ctx) error {
	out, err := h.uc.ListAll(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateReport godoc
// @Summary      Cadastrar relatório
// @Description  workspace_id e report_id são extraídos do embed_code quando omitidos.
// @Tags         bi
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BIReportRequest  true  "Relatório"
// @Success      201   {object}  dto.BIReportResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/bi/reports [post]
func (h *BIHandler) CreateReport(c *fiber.Ctx) error {
	var in dto.BIReportRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreateReport(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateReport godoc
// @Summary      Editar relatório
// @Tags         bi
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID do relatório"
// @Param        body  body  dto.BIReportRequest  true  "Relatório"
// @Success      200   {object}  dto.BIReportResponse
// @Router       /api/bi/reports/{id} [put]
func (h *BIHandler) UpdateReport(c *fiber.Ctx) error {
	var in dto.BIReportRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateReport(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteReport godoc
// @Summary      Excluir relatório
// @Tags         bi
// @Security     Bearer
// @Param        id  path  string  true  "ID do relatório"
// @Success      204
// @Router       /api/bi/reports/{id} [delete]
func (h *BIHandler) DeleteReport(c *fiber.Ctx) error {
	if err := h.uc.DeleteReport(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Embed godoc
// @Summary      URL e token de embed (registra o acesso)
// @Tags         bi
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID do relatório"
// @Success      200  {object}  dto.BIEmbedResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/bi/reports/{id}/embed [get]
func (h *BIHandler) Embed(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	out, err := h.uc.Embed(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// LastRefresh godoc
// @Summary      Última atualização concluída do dataset
// @Tags         bi
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID do relatório"
// @Success      200  {object}  dto.BIRefreshResponse
// @Router       /api/bi/reports/{id}/refresh [get]
func (h *BIHandler) LastRefresh(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	out, err := h.uc.LastRefresh(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// TriggerRefresh godoc
// @Summary      Disparar refresh do dataset
// @Description  Um segundo pedido para o mesmo relatório dentro de 5 minutos retorna 409.
// @Tags         bi
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID do relatório"
// @Success      202  {object}  dto.MessageResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/bi/reports/{id}/refresh [post]
func (h *BIHandler) TriggerRefresh(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	if err := h.uc.TriggerRefresh(c.UserContext(), actor, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.MessageResponse{Message: "atualização solicitada"})
}

// ListAccesses godoc
// @Summary      Acessos ao relatório
// @Tags         bi
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID do relatório"
// @Success      200  {array}  dto.BIAccessResponse
// @Router       /api/bi/reports/{id}/accesses [get]
func (h *BIHandler) ListAccesses(c *fiber.Ctx) error {
	out, err := h.uc.ListAccesses(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateView godoc
// @Summary      Salvar visão do relatório
// @Tags         bi
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID do relatório"
// @Param        body  body  dto.SavedViewRequest  true  "Visão"
// @Success      201   {object}  dto.SavedViewResponse
// @Router       /api/bi/reports/{id}/views [post]
func (h *BIHandler) CreateView(c *fiber.Ctx) error {
	var in dto.SavedViewRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.CreateView(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListViews godoc
// @Summary      Visões salvas do usuário para o relatório
// @Tags         bi
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID do relatório"
// @Success      200  {array}  dto.SavedViewResponse
// @Router       /api/bi/reports/{id}/views [get]
func (h *BIHandler) ListViews(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	out, err := h.uc.ListViews(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteView godoc
// @Summary      Excluir visão
// @Tags         bi
// @Security     Bearer
// @Param        viewId  path  string  true  "ID da visão"
// @Success      204
// @Router       /api/bi/views/{viewId} [delete]
func (h *BIHandler) DeleteView(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	if err := h.uc.DeleteView(c.UserContext(), actor, c.Params("viewId")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetDefaultView godoc
// @Summary      Marcar visão como padrão
// @Tags         bi
// @Security     Bearer
// @Param        viewId  path  string  true  "ID da visão"
// @Success      204
// @Router       /api/bi/views/{viewId}/default [post]
func (h *BIHandler) SetDefaultView(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	if err := h.uc.SetDefaultView(c.UserContext(), actor, c.Params("viewId")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ShareView godoc
// @Summary      Compartilhar visão (gera token)
// @Tags         bi
// @Security     Bearer
// @Produce      json
// @Param        viewId  path  string  true  "ID da visão"
// @Success      200  {object}  dto.SavedViewResponse
// @Router       /api/bi/views/{viewId}/share [post]
func (h *BIHandler) ShareView(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	out, err := h.uc.ShareView(c.UserContext(), actor, c.Params("viewId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UnshareView godoc
// @Summary      Revogar compartilhamento
// @Tags         bi
// @Security     Bearer
// @Param        viewId  path  string  true  "ID da visão"
// @Success      204
// @Router       /api/bi/views/{viewId}/share [delete]
func (h *BIHandler) UnshareView(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	if err := h.uc.UnshareView(c.UserContext(), actor, c.Params("viewId")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ShareQR godoc
// @Summary      QR code do link compartilhado
// @Tags         bi
// @Security     Bearer
// @Produce      image/png
// @Param        viewId  path  string  true  "ID da visão"
// @Success      200  {file}  binary
// @Router       /api/bi/views/{viewId}/qr [get]
func (h *BIHandler) ShareQR(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	png, err := h.uc.ShareQR(c.UserContext(), actor, c.Params("viewId"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

// SharedView godoc
// @Summary      Abrir visão compartilhada por token
// @Tags         bi
// @Security     Bearer
// @Produce      json
// @Param        token  path  string  true  "Token de compartilhamento"
// @Success      200  {object}  dto.SavedViewResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/bi/views/shared/{token} [get]
func (h *BIHandler) SharedView(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	out, err := h.uc.SharedView(c.UserContext(), actor, c.Params("token"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
