package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/usecase"
	"github.com/jhoicas/portal-intranet/internal/domain"
)

// ChatHandler assistente de IA: conversas, mensagens e monitor de custos.
type ChatHandler struct {
	uc *usecase.AIUseCase
}

// NewChatHandler construye el handler.
func NewChatHandler(uc *usecase.AIUseCase) *ChatHandler {
	return &ChatHandler{uc: uc}
}

// CreateChat godoc
// @Summary      Nova conversa
// @Tags         ia
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateChatRequest  true  "Título e modelo"
// @Success      201   {object}  dto.ChatResponse
// @Router       /api/ai/chats [post]
func (h *ChatHandler) CreateChat(c *fiber.Ctx) error {
	var in dto.CreateChatRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.CreateChat(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListChats godoc
// @Summary      Conversas do usuário
// @Tags         ia
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ChatResponse
// @Router       /api/ai/chats [get]
func (h *ChatHandler) ListChats(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	out, err := h.uc.ListChats(c.UserContext(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RenameChat godoc
// @Summary      Renomear conversa
// @Tags         ia
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID da conversa"
// @Param        body  body  dto.RenameChatRequest  true  "title"
// @Success      200   {object}  dto.ChatResponse
// @Router       /api/ai/chats/{id} [patch]
func (h *ChatHandler) RenameChat(c *fiber.Ctx) error {
	var in dto.RenameChatRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.RenameChat(c.UserContext(), actor, c.Params("id"), in.Title)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteChat godoc
// @Summary      Excluir conversa
// @Tags         ia
// @Security     Bearer
// @Param        id  path  string  true  "ID da conversa"
// @Success      204
// @Router       /api/ai/chats/{id} [delete]
func (h *ChatHandler) DeleteChat(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	if err := h.uc.DeleteChat(c.UserContext(), actor, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Messages godoc
// @Summary      Mensagens da conversa
// @Tags         ia
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID da conversa"
// @Success      200  {array}  dto.ChatMessageResponse
// @Router       /api/ai/chats/{id}/messages [get]
func (h *ChatHandler) Messages(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	out, err := h.uc.Messages(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SendMessage godoc
// @Summary      Enviar mensagem (com anexos opcionais)
// @Description  O texto dos anexos é extraído e enviado ao modelo; o custo da chamada é registrado.
// @Tags         ia
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      string  true   "ID da conversa"
// @Param        text   formData  string  false  "Mensagem"
// @Param        model  formData  string  false  "Modelo"
// @Param        files  formData  file    false  "Anexos"
// @Success      200  {object}  dto.SendMessageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Failure      504  {object}  dto.ErrorResponse
// @Router       /api/ai/chats/{id}/messages [post]
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var in dto.SendMessageRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	var err error
	if in.Attachments, err = formFiles(c, "files"); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.SendMessage(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Models godoc
// @Summary      Modelos disponíveis para o usuário
// @Tags         ia
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  string
// @Router       /api/ai/models [get]
func (h *ChatHandler) Models(c *fiber.Ctx) error {
	actor, _ := GetPrincipal(c)
	return c.JSON(h.uc.Models(actor))
}

// Usage godoc
// @Summary      Monitor de custos da API
// @Tags         ia
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "Início (YYYY-MM-DD)"
// @Param        to    query  string  false  "Fim inclusive (YYYY-MM-DD)"
// @Param        all   query  bool    false  "Todos os usuários (ia.view_all_api_costs)"
// @Success      200   {object}  dto.UsageResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/ai/usage [get]
func (h *ChatHandler) Usage(c *fiber.Ctx) error {
	in := dto.UsageRequest{All: c.QueryBool("all", false)}
	var err error
	if in.From, err = dateParam(c.Query("from"), false); err != nil {
		return writeError(c, err)
	}
	if in.To, err = dateParam(c.Query("to"), true); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.Usage(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// dateParam acepta YYYY-MM-DD o RFC3339. endOfDay lleva una fecha simple al último instante del día.
func dateParam(raw string, endOfDay bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: data %q", domain.ErrInvalidInput, raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
