package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/usecase"
)

// campo multipart con el nombre del respondente cuando el formulario lo recolecta
const submitNameField = "_nome"

// FormHandler formulários dinâmicos: edição, respostas, exportações e home.
type FormHandler struct {
	uc *usecase.FormUseCase
}

// NewFormHandler construye el handler.
func NewFormHandler(uc *usecase.FormUseCase) *FormHandler {
	return &FormHandler{uc: uc}
}

// Create godoc
// @Summary      Criar formulário
// @Tags         formularios
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.FormRequest  true  "Formulário"
// @Success      201   {object}  dto.FormResponse
// @Router       /api/forms [post]
func (h *FormHandler) Create(c *fiber.Ctx) error {
	var in dto.FormRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.Create(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Editar formulário
// @Tags         formularios
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string           true  "ID do formulário"
// @Param        body  body  dto.FormRequest  true  "Formulário"
// @Success      200   {object}  dto.FormResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/forms/{id} [put]
func (h *FormHandler) Update(c *fiber.Ctx) error {
	var in dto.FormRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.Update(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Excluir formulário
// @Tags         formularios
// @Security     Bearer
// @Param        id  path  string  true  "ID do formulário"
// @Success      204
// @Router       /api/forms/{id} [delete]
func (h *FormHandler) Delete(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	if err := h.uc.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Get godoc
// @Summary      Obter formulário para edição
// @Tags         formularios
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID do formulário"
// @Success      200  {object}  dto.FormResponse
// @Router       /api/forms/{id} [get]
func (h *FormHandler) Get(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	out, err := h.uc.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListMine godoc
// @Summary      Formulários que o usuário pode editar ou ver
// @Tags         formularios
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.FormResponse
// @Router       /api/forms [get]
func (h *FormHandler) ListMine(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	out, err := h.uc.ListMine(c.UserContext(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AddField godoc
// @Summary      Adicionar pergunta (incrementa a versão)
// @Tags         formularios
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string            true  "ID do formulário"
// @Param        body  body  dto.FieldRequest  true  "Pergunta"
// @Success      201   {object}  dto.FormResponse
// @Router       /api/forms/{id}/fields [post]
func (h *FormHandler) AddField(c *fiber.Ctx) error {
	var in dto.FieldRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.AddField(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateField godoc
// @Summary      Editar pergunta (incrementa a versão)
// @Tags         formularios
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id       path  string            true  "ID do formulário"
// @Param        fieldId  path  string            true  "ID da pergunta"
// @Param        body     body  dto.FieldRequest  true  "Pergunta"
// @Success      200      {object}  dto.FormResponse
// @Router       /api/forms/{id}/fields/{fieldId} [put]
func (h *FormHandler) UpdateField(c *fiber.Ctx) error {
	var in dto.FieldRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.UpdateField(c.UserContext(), actor, c.Params("id"), c.Params("fieldId"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteField godoc
// @Summary      Remover pergunta (incrementa a versão)
// @Tags         formularios
// @Security     Bearer
// @Produce      json
// @Param        id       path  string  true  "ID do formulário"
// @Param        fieldId  path  string  true  "ID da pergunta"
// @Success      200      {object}  dto.FormResponse
// @Router       /api/forms/{id}/fields/{fieldId} [delete]
func (h *FormHandler) DeleteField(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	out, err := h.uc.DeleteField(c.UserContext(), actor, c.Params("id"), c.Params("fieldId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ReorderFields godoc
// @Summary      Reordenar perguntas (incrementa a versão)
// @Tags         formularios
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID do formulário"
// @Param        body  body  dto.ReorderRequest  true  "Nova ordem"
// @Success      200   {object}  dto.FormResponse
// @Router       /api/forms/{id}/fields/order [put]
func (h *FormHandler) ReorderFields(c *fiber.Ctx) error {
	var in dto.ReorderRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.ReorderFields(c.UserContext(), actor, c.Params("id"), in.FieldIDs)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SetCollaborators godoc
// @Summary      Definir colaboradores
// @Tags         formularios
// @Security     Bearer
// @Accept       json
// @Param        id    path  string                    true  "ID do formulário"
// @Param        body  body  dto.CollaboratorsRequest  true  "Colaboradores"
// @Success      204
// @Router       /api/forms/{id}/collaborators [put]
func (h *FormHandler) SetCollaborators(c *fiber.Ctx) error {
	var in dto.CollaboratorsRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	if err := h.uc.SetCollaborators(c.UserContext(), actor, c.Params("id"), in); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetForAnswer godoc
// @Summary      Formulário para responder (público dispensa token)
// @Tags         formularios
// @Produce      json
// @Param        id   path  string  true  "ID do formulário"
// @Success      200  {object}  dto.FormResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      410  {object}  dto.ErrorResponse
// @Router       /api/public/forms/{id} [get]
func (h *FormHandler) GetForAnswer(c *fiber.Ctx) error {
	out, err := h.uc.GetForAnswer(c.UserContext(), optionalPrincipal(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Submit godoc
// @Summary      Enviar respostas
// @Description  Cada pergunta vai no campo multipart com o ID dela; checkbox repete o campo. "_nome" leva o nome do respondente anônimo.
// @Tags         formularios
// @Accept       multipart/form-data
// @Produce      json
// @Param        id   path  string  true  "ID do formulário"
// @Success      201  {object}  dto.SubmitResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      410  {object}  dto.ErrorResponse
// @Router       /api/public/forms/{id}/responses [post]
func (h *FormHandler) Submit(c *fiber.Ctx) error {
	in, err := submission(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Submit(c.UserContext(), optionalPrincipal(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// submission arma el envío a partir de multipart o de un form urlencoded.
func submission(c *fiber.Ctx) (dto.SubmitFormRequest, error) {
	in := dto.SubmitFormRequest{
		Values: map[string][]string{},
		Files:  map[string][]dto.Upload{},
		IP:     c.IP(),
	}
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		mf, err := c.MultipartForm()
		if err != nil {
			return in, errInvalidBody
		}
		for key, vals := range mf.Value {
			in.Values[key] = append(in.Values[key], vals...)
		}
		for key, fhs := range mf.File {
			for _, fh := range fhs {
				up, err := readUpload(fh)
				if err != nil {
					return in, err
				}
				in.Files[key] = append(in.Files[key], up)
			}
		}
	} else {
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			in.Values[string(k)] = append(in.Values[string(k)], string(v))
		})
	}
	if names := in.Values[submitNameField]; len(names) > 0 {
		in.Name = names[0]
		delete(in.Values, submitNameField)
	}
	return in, nil
}

func optionalPrincipal(c *fiber.Ctx) *dto.Principal {
	p, ok := GetPrincipal(c)
	if !ok {
		return nil
	}
	return &p
}

// ListResponses godoc
// @Summary      Respostas do formulário
// @Tags         formularios
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID do formulário"
// @Param        limit   query  int     false  "Limite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.AnswerListResponse
// @Router       /api/forms/{id}/responses [get]
func (h *FormHandler) ListResponses(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := bindQuery(c, &page); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.ListResponses(c.UserContext(), actor, c.Params("id"), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ExportCSV godoc
// @Summary      Exportar respostas em CSV
// @Tags         formularios
// @Security     Bearer
// @Produce      text/csv
// @Param        id   path  string  true  "ID do formulário"
// @Success      200  {file}  binary
// @Router       /api/forms/{id}/export/csv [get]
func (h *FormHandler) ExportCSV(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	data, name, err := h.uc.ExportCSV(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return sendAttachment(c, data, "text/csv; charset=utf-8", name)
}

// ExportFiles godoc
// @Summary      ZIP com os arquivos enviados
// @Tags         formularios
// @Security     Bearer
// @Produce      application/zip
// @Param        id   path  string  true  "ID do formulário"
// @Success      200  {file}  binary
// @Router       /api/forms/{id}/export/files [get]
func (h *FormHandler) ExportFiles(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	data, name, err := h.uc.ExportFiles(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return sendAttachment(c, data, "application/zip", name)
}

// ExportPDF godoc
// @Summary      Resumo das respostas em PDF
// @Tags         formularios
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID do formulário"
// @Success      200  {file}  binary
// @Router       /api/forms/{id}/export/pdf [get]
func (h *FormHandler) ExportPDF(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	data, name, err := h.uc.ExportPDF(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return sendAttachment(c, data, "application/pdf", name)
}

// HomeFeed godoc
// @Summary      Formulários a exibir na home
// @Tags         formularios
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.HomeFormResponse
// @Router       /api/forms/home [get]
func (h *FormHandler) HomeFeed(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	out, err := h.uc.HomeFeed(c.UserContext(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Dismiss godoc
// @Summary      Ocultar formulário da home
// @Tags         formularios
// @Security     Bearer
// @Param        id  path  string  true  "ID do formulário"
// @Success      204
// @Router       /api/forms/{id}/dismiss [post]
func (h *FormHandler) Dismiss(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	if err := h.uc.Dismiss(c.UserContext(), actor, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
