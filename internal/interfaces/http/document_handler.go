package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/usecase"
)

// DocumentHandler documentos, revisões, fluxo de aprovação e categorias.
type DocumentHandler struct {
	uc *usecase.DocumentUseCase
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc *usecase.DocumentUseCase) *DocumentHandler {
	return &DocumentHandler{uc: uc}
}

// Create godoc
// @Summary      Criar documento (revisão 0)
// @Description  Editável .doc/.docx/.odt gera PDF na aprovação; planilhas .xls/.xlsx/.ods podem trazer PDF manual.
// @Tags         documentos
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        name         formData  string  true   "Nome"
// @Param        category_id  formData  string  true   "Categoria"
// @Param        file         formData  file    true   "Arquivo editável"
// @Param        pdf          formData  file    false  "PDF manual (só planilhas)"
// @Success      201  {object}  dto.DocumentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/documents [post]
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateDocumentRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	var err error
	if in.File, err = formFile(c, "file"); err != nil {
		return writeError(c, err)
	}
	if in.PDF, err = optionalFormFile(c, "pdf"); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.Create(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// NewRevision godoc
// @Summary      Nova revisão a partir de um documento
// @Tags         documentos
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      string  true   "Revisão de origem"
// @Param        name  formData  string  false  "Novo nome"
// @Param        file  formData  file    true   "Arquivo editável"
// @Success      201  {object}  dto.DocumentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/revisions [post]
func (h *DocumentHandler) NewRevision(c *fiber.Ctx) error {
	var in dto.NewRevisionRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	var err error
	if in.File, err = formFile(c, "file"); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.NewRevision(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Transition godoc
// @Summary      Ação do fluxo de aprovação
// @Description  concluir_analise, enviar_elaborador, aprovar_elaborador, aprovar ou reprovar.
// @Tags         documentos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID do documento"
// @Param        body  body  dto.TransitionRequest  true  "Ação"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/transition [post]
func (h *DocumentHandler) Transition(c *fiber.Ctx) error {
	var in dto.TransitionRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.Transition(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GeneratePDF godoc
// @Summary      Regerar a versão publicada
// @Tags         documentos
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID do documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/generate-pdf [post]
func (h *DocumentHandler) GeneratePDF(c *fiber.Ctx) error {
	out, err := h.uc.GeneratePDF(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ReplacePDF godoc
// @Summary      Substituir o PDF publicado
// @Tags         documentos
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        id   path      string  true  "ID do documento"
// @Param        pdf  formData  file    true  "PDF"
// @Success      200  {object}  dto.DocumentResponse
// @Router       /api/documents/{id}/pdf [put]
func (h *DocumentHandler) ReplacePDF(c *fiber.Ctx) error {
	up, err := formFile(c, "pdf")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ReplacePDF(c.UserContext(), c.Params("id"), up)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Rename godoc
// @Summary      Renomear documento (grava histórico)
// @Tags         documentos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID do documento"
// @Param        body  body  dto.RenameRequest  true  "name"
// @Success      200   {object}  dto.DocumentResponse
// @Router       /api/documents/{id}/name [patch]
func (h *DocumentHandler) Rename(c *fiber.Ctx) error {
	var in dto.RenameRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.Rename(c.UserContext(), actor, c.Params("id"), in.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SetActive godoc
// @Summary      Ativar ou inativar revisão
// @Tags         documentos
// @Security     Bearer
// @Accept       json
// @Param        id    path  string                true  "ID do documento"
// @Param        body  body  dto.SetActiveRequest  true  "active"
// @Success      204
// @Router       /api/documents/{id}/active [patch]
func (h *DocumentHandler) SetActive(c *fiber.Ctx) error {
	var in dto.SetActiveRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	if err := h.uc.SetActive(c.UserContext(), c.Params("id"), in.Active); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Delete godoc
// @Summary      Excluir revisão (auditado)
// @Tags         documentos
// @Security     Bearer
// @Param        id  path  string  true  "ID do documento"
// @Success      204
// @Router       /api/documents/{id} [delete]
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	if err := h.uc.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Get godoc
// @Summary      Obter documento (registra o acesso)
// @Tags         documentos
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID do documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	out, err := h.uc.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DownloadPDF godoc
// @Summary      Baixar versão publicada
// @Tags         documentos
// @Security     Bearer
// @Produce      application/octet-stream
// @Param        id   path  string  true  "ID do documento"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/pdf [get]
func (h *DocumentHandler) DownloadPDF(c *fiber.Ctx) error {
	return h.download(c, false)
}

// DownloadEditable godoc
// @Summary      Baixar arquivo editável
// @Tags         documentos
// @Security     Bearer
// @Produce      application/octet-stream
// @Param        id   path  string  true  "ID do documento"
// @Success      200  {file}  binary
// @Router       /api/documents/{id}/editable [get]
func (h *DocumentHandler) DownloadEditable(c *fiber.Ctx) error {
	return h.download(c, true)
}

func (h *DocumentHandler) download(c *fiber.Ctx, editable bool) error {
	path, name, err := h.uc.File(c.UserContext(), c.Params("id"), editable)
	if err != nil {
		return writeError(c, err)
	}
	return c.Download(path, name)
}

// ListApproved godoc
// @Summary      Documentos aprovados (última revisão ativa por código)
// @Tags         documentos
// @Security     Bearer
// @Produce      json
// @Param        name         query  string  false  "Nome contém"
// @Param        category_id  query  string  false  "Categoria"
// @Param        limit        query  int     false  "Limite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.DocumentListResponse
// @Router       /api/documents [get]
func (h *DocumentHandler) ListApproved(c *fiber.Ctx) error {
	return h.list(c, h.uc.ListApproved)
}

// ListInactive godoc
// @Summary      Documentos inativos
// @Tags         documentos
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DocumentListResponse
// @Router       /api/documents/inactive [get]
func (h *DocumentHandler) ListInactive(c *fiber.Ctx) error {
	return h.list(c, h.uc.ListInactive)
}

// ListRejected godoc
// @Summary      Documentos reprovados
// @Tags         documentos
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DocumentListResponse
// @Router       /api/documents/rejected [get]
func (h *DocumentHandler) ListRejected(c *fiber.Ctx) error {
	return h.list(c, h.uc.ListRejected)
}

// Monitor godoc
// @Summary      Monitor de documentos (todos os status)
// @Tags         documentos
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Status"
// @Success      200  {object}  dto.DocumentListResponse
// @Router       /api/documents/monitor [get]
func (h *DocumentHandler) Monitor(c *fiber.Ctx) error {
	return h.list(c, h.uc.Monitor)
}

func (h *DocumentHandler) list(c *fiber.Ctx, fn func(context.Context, dto.DocumentFilterRequest) (*dto.DocumentListResponse, error)) error {
	var in dto.DocumentFilterRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := fn(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListPending godoc
// @Summary      Documentos aguardando uma ação do usuário
// @Tags         documentos
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.DocumentResponse
// @Router       /api/documents/pending [get]
func (h *DocumentHandler) ListPending(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	out, err := h.uc.ListPending(c.UserContext(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListRevisions godoc
// @Summary      Revisões de um código
// @Tags         documentos
// @Security     Bearer
// @Produce      json
// @Param        codigo  path  string  true  "Código do documento"
// @Success      200  {array}  dto.DocumentResponse
// @Router       /api/documents/codigo/{codigo}/revisions [get]
func (h *DocumentHandler) ListRevisions(c *fiber.Ctx) error {
	out, err := h.uc.ListRevisions(c.UserContext(), c.Params("codigo"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListAccesses godoc
// @Summary      Acessos registrados ao documento
// @Tags         documentos
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID do documento"
// @Success      200  {array}  dto.AccessResponse
// @Router       /api/documents/{id}/accesses [get]
func (h *DocumentHandler) ListAccesses(c *fiber.Ctx) error {
	out, err := h.uc.ListAccesses(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// NameHistory godoc
// @Summary      Histórico de nomes
// @Tags         documentos
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID do documento"
// @Success      200  {array}  dto.NameChangeResponse
// @Router       /api/documents/{id}/names [get]
func (h *DocumentHandler) NameHistory(c *fiber.Ctx) error {
	out, err := h.uc.NameHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListCategories godoc
// @Summary      Listar categorias
// @Tags         categorias
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.CategoryResponse
// @Router       /api/categories [get]
func (h *DocumentHandler) ListCategories(c *fiber.Ctx) error {
	out, err := h.uc.ListCategories(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateCategory godoc
// @Summary      Criar categoria
// @Tags         categorias
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CategoryRequest  true  "Categoria"
// @Success      201   {object}  dto.CategoryResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/categories [post]
func (h *DocumentHandler) CreateCategory(c *fiber.Ctx) error {
	var in dto.CategoryRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreateCategory(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateCategory godoc
// @Summary      Editar categoria
// @Tags         categorias
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID da categoria"
// @Param        body  body  dto.CategoryRequest  true  "Categoria"
// @Success      200   {object}  dto.CategoryResponse
// @Router       /api/categories/{id} [put]
func (h *DocumentHandler) UpdateCategory(c *fiber.Ctx) error {
	var in dto.CategoryRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateCategory(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteCategory godoc
// @Summary      Excluir categoria
// @Tags         categorias
// @Security     Bearer
// @Param        id  path  string  true  "ID da categoria"
// @Success      204
// @Router       /api/categories/{id} [delete]
func (h *DocumentHandler) DeleteCategory(c *fiber.Ctx) error {
	if err := h.uc.DeleteCategory(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
