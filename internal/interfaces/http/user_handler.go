package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/usecase"
)

// UserHandler administración de usuarios, grupos y permisos.
type UserHandler struct {
	uc *usecase.UserUseCase
}

// NewUserHandler construye el handler.
func NewUserHandler(uc *usecase.UserUseCase) *UserHandler {
	return &UserHandler{uc: uc}
}

// Create godoc
// @Summary      Criar usuário local
// @Tags         usuarios
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateUserRequest  true  "Dados do usuário"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/users [post]
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateUserRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar usuários
// @Tags         usuarios
// @Security     Bearer
// @Produce      json
// @Param        q       query  string  false  "Busca por nome, usuário ou e-mail"
// @Param        limit   query  int     false  "Limite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.UserListResponse
// @Router       /api/users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := bindQuery(c, &page); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), c.Query("q"), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obter usuário
// @Tags         usuarios
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID do usuário"
// @Success      200  {object}  dto.UserResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/users/{id} [get]
func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Atualizar usuário
// @Tags         usuarios
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID do usuário"
// @Param        body  body  dto.UpdateUserRequest  true  "Campos a alterar"
// @Success      200   {object}  dto.UserResponse
// @Router       /api/users/{id} [put]
func (h *UserHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateUserRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SetActive godoc
// @Summary      Ativar ou inativar usuário
// @Tags         usuarios
// @Security     Bearer
// @Accept       json
// @Param        id    path  string                true  "ID do usuário"
// @Param        body  body  dto.SetActiveRequest  true  "active"
// @Success      204
// @Router       /api/users/{id}/active [patch]
func (h *UserHandler) SetActive(c *fiber.Ctx) error {
	var in dto.SetActiveRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	if err := h.uc.SetActive(c.UserContext(), c.Params("id"), in.Active); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetPassword godoc
// @Summary      Definir senha (só contas locais)
// @Tags         usuarios
// @Security     Bearer
// @Accept       json
// @Param        id    path  string                  true  "ID do usuário"
// @Param        body  body  dto.SetPasswordRequest  true  "password"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/users/{id}/password [put]
func (h *UserHandler) SetPassword(c *fiber.Ctx) error {
	var in dto.SetPasswordRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	if err := h.uc.SetPassword(c.UserContext(), c.Params("id"), in.Password); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DirectPermissions godoc
// @Summary      Permissões diretas do usuário
// @Tags         usuarios
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID do usuário"
// @Success      200  {array}  string
// @Router       /api/users/{id}/permissions [get]
func (h *UserHandler) DirectPermissions(c *fiber.Ctx) error {
	out, err := h.uc.DirectPermissions(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SetDirectPermissions godoc
// @Summary      Definir permissões diretas (delegação limitada às próprias permissões)
// @Tags         usuarios
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID do usuário"
// @Param        body  body  dto.PermissionsRequest  true  "codenames"
// @Success      200   {array}  string
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/users/{id}/permissions [put]
func (h *UserHandler) SetDirectPermissions(c *fiber.Ctx) error {
	var in dto.PermissionsRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	actor, _ := GetPrincipal(c)
	out, err := h.uc.SetDirectPermissions(c.UserContext(), actor, c.Params("id"), in.Permissions)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AddToGroup godoc
// @Summary      Incluir usuário no grupo
// @Tags         usuarios
// @Security     Bearer
// @Param        id       path  string  true  "ID do usuário"
// @Param        groupId  path  string  true  "ID do grupo"
// @Success      204
// @Router       /api/users/{id}/groups/{groupId} [post]
func (h *UserHandler) AddToGroup(c *fiber.Ctx) error {
	if err := h.uc.AddToGroup(c.UserContext(), c.Params("id"), c.Params("groupId")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveFromGroup godoc
// @Summary      Remover usuário do grupo
// @Tags         usuarios
// @Security     Bearer
// @Param        id       path  string  true  "ID do usuário"
// @Param        groupId  path  string  true  "ID do grupo"
// @Success      204
// @Router       /api/users/{id}/groups/{groupId} [delete]
func (h *UserHandler) RemoveFromGroup(c *fiber.Ctx) error {
	if err := h.uc.RemoveFromGroup(c.UserContext(), c.Params("id"), c.Params("groupId")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Permissions godoc
// @Summary      Catálogo de permissões
// @Tags         usuarios
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.PermissionResponse
// @Router       /api/permissions [get]
func (h *UserHandler) Permissions(c *fiber.Ctx) error {
	return c.JSON(h.uc.Permissions())
}

// CreateGroup godoc
// @Summary      Criar grupo
// @Tags         grupos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.GroupRequest  true  "name"
// @Success      201   {object}  dto.GroupResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/groups [post]
func (h *UserHandler) CreateGroup(c *fiber.Ctx) error {
	var in dto.GroupRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreateGroup(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListGroups godoc
// @Summary      Listar grupos
// @Tags         grupos
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.GroupResponse
// @Router       /api/groups [get]
func (h *UserHandler) ListGroups(c *fiber.Ctx) error {
	out, err := h.uc.ListGroups(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RenameGroup godoc
// @Summary      Renomear grupo
// @Tags         grupos
// @Security     Bearer
// @Accept       json
// @Param        id    path  string            true  "ID do grupo"
// @Param        body  body  dto.GroupRequest  true  "name"
// @Success      204
// @Router       /api/groups/{id} [put]
func (h *UserHandler) RenameGroup(c *fiber.Ctx) error {
	var in dto.GroupRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	if err := h.uc.RenameGroup(c.UserContext(), c.Params("id"), in); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteGroup godoc
// @Summary      Excluir grupo
// @Tags         grupos
// @Security     Bearer
// @Param        id  path  string  true  "ID do grupo"
// @Success      204
// @Router       /api/groups/{id} [delete]
func (h *UserHandler) DeleteGroup(c *fiber.Ctx) error {
	if err := h.uc.DeleteGroup(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetGroupPermissions godoc
// @Summary      Definir permissões do grupo
// @Tags         grupos
// @Security     Bearer
// @Accept       json
// @Param        id    path  string                  true  "ID do grupo"
// @Param        body  body  dto.PermissionsRequest  true  "codenames"
// @Success      204
// @Router       /api/groups/{id}/permissions [put]
func (h *UserHandler) SetGroupPermissions(c *fiber.Ctx) error {
	var in dto.PermissionsRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	if err := h.uc.SetGroupPermissions(c.UserContext(), c.Params("id"), in.Permissions); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GroupMembers godoc
// @Summary      Membros do grupo
// @Tags         grupos
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID do grupo"
// @Success      200  {array}  dto.UserResponse
// @Router       /api/groups/{id}/members [get]
func (h *UserHandler) GroupMembers(c *fiber.Ctx) error {
	out, err := h.uc.GroupMembers(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
