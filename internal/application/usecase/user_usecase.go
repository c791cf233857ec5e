package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
	"github.com/jhoicas/portal-intranet/pkg/logger"
)

// UserUseCase administración de usuarios, grupos y delegación de permisos.
type UserUseCase struct {
	users  repository.UserRepository
	groups repository.GroupRepository
	log    *logger.Logger
}

// NewUserUseCase construye el caso de uso con los puertos de persistencia.
func NewUserUseCase(users repository.UserRepository, groups repository.GroupRepository, log *logger.Logger) *UserUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UserUseCase{users: users, groups: groups, log: log.Named("usuarios")}
}

// Create da de alta un usuario local con password bcrypt.
func (uc *UserUseCase) Create(ctx context.Context, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	existing, err := uc.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: usuário %s já existe", domain.ErrDuplicate, username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	u := &entity.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: string(hash),
		Source:       entity.UserSourceLocal,
		IsActive:     true,
		IsStaff:      in.IsStaff,
		IsSuperuser:  in.IsSuperuser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return entityToUserResponse(u), nil
}

// List usuarios paginados con búsqueda por nombre, username o e-mail.
func (uc *UserUseCase) List(ctx context.Context, search string, page dto.PageRequest) (*dto.UserListResponse, error) {
	page.DefaultPage()
	list, total, err := uc.users.List(ctx, strings.TrimSpace(search), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.UserListResponse{Items: make([]dto.UserResponse, 0, len(list)), Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total}}
	for _, u := range list {
		out.Items = append(out.Items, *entityToUserResponse(u))
	}
	return out, nil
}

// GetByID obtiene un usuario por ID.
func (uc *UserUseCase) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	u, err := uc.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	return entityToUserResponse(u), nil
}

// Update cambia nombre, e-mail y flags.
func (uc *UserUseCase) Update(ctx context.Context, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	u, err := uc.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.IsStaff != nil {
		u.IsStaff = *in.IsStaff
	}
	if in.IsSuperuser != nil {
		u.IsSuperuser = *in.IsSuperuser
	}
	u.UpdatedAt = time.Now()
	if err := uc.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return entityToUserResponse(u), nil
}

// SetActive activa o inactiva la cuenta.
func (uc *UserUseCase) SetActive(ctx context.Context, id string, active bool) error {
	u, err := uc.mustGet(ctx, id)
	if err != nil {
		return err
	}
	u.IsActive = active
	u.UpdatedAt = time.Now()
	return uc.users.Update(ctx, u)
}

// SetPassword sólo para cuentas locales; las del AD cambian la contraseña en el directorio.
func (uc *UserUseCase) SetPassword(ctx context.Context, id, password string) error {
	u, err := uc.mustGet(ctx, id)
	if err != nil {
		return err
	}
	if u.Source != entity.UserSourceLocal {
		return fmt.Errorf("%w: senha de conta AD é gerenciada no diretório", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now()
	return uc.users.Update(ctx, u)
}

// DirectPermissions permisos asignados directamente al usuario.
func (uc *UserUseCase) DirectPermissions(ctx context.Context, id string) ([]string, error) {
	if _, err := uc.mustGet(ctx, id); err != nil {
		return nil, err
	}
	perms, err := uc.users.DirectPermissions(ctx, id)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []string{}
	}
	return perms, nil
}

// SetDirectPermissions reemplaza los permisos directos del usuario.
// Quien sólo tiene delegate_permissions puede otorgar o quitar únicamente permisos que posee;
// los demás permisos del usuario se conservan.
func (uc *UserUseCase) SetDirectPermissions(ctx context.Context, actor dto.Principal, id string, perms []string) ([]string, error) {
	if _, err := uc.mustGet(ctx, id); err != nil {
		return nil, err
	}
	for _, p := range perms {
		if !entity.IsKnownPermission(p) {
			return nil, fmt.Errorf("%w: permissão desconhecida %s", domain.ErrInvalidInput, p)
		}
	}
	requested := dedupe(perms)

	if !actor.Can(entity.PermManageUsers) {
		if !actor.Can(entity.PermDelegatePermissions) {
			return nil, domain.ErrForbidden
		}
		if actor.UserID == id {
			return nil, fmt.Errorf("%w: não é possível delegar para si mesmo", domain.ErrForbidden)
		}
		held := actor.PermissionSet()
		for _, p := range requested {
			if !held[p] {
				return nil, fmt.Errorf("%w: você não possui %s", domain.ErrForbidden, p)
			}
		}
		current, err := uc.users.DirectPermissions(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, p := range current {
			if !held[p] {
				requested = append(requested, p)
			}
		}
		requested = dedupe(requested)
		uc.log.Info().Str("actor", actor.Username).Str("user_id", id).Strs("perms", requested).Msg("permisos delegados")
	}
	if err := uc.users.SetDirectPermissions(ctx, id, requested); err != nil {
		return nil, err
	}
	return requested, nil
}

// AddToGroup agrega el usuario al grupo.
func (uc *UserUseCase) AddToGroup(ctx context.Context, userID, groupID string) error {
	if _, err := uc.mustGet(ctx, userID); err != nil {
		return err
	}
	if _, err := uc.mustGetGroup(ctx, groupID); err != nil {
		return err
	}
	return uc.groups.AddMember(ctx, groupID, userID)
}

// RemoveFromGroup quita el usuario del grupo.
func (uc *UserUseCase) RemoveFromGroup(ctx context.Context, userID, groupID string) error {
	return uc.groups.RemoveMember(ctx, groupID, userID)
}

// Permissions catálogo de permisos.
func (uc *UserUseCase) Permissions() []dto.PermissionResponse {
	out := make([]dto.PermissionResponse, 0, len(entity.PermissionCatalog))
	for _, p := range entity.PermissionCatalog {
		out = append(out, dto.PermissionResponse{Codename: p.Codename, Description: p.Description})
	}
	return out
}

// CreateGroup alta de grupo.
func (uc *UserUseCase) CreateGroup(ctx context.Context, in dto.GroupRequest) (*dto.GroupResponse, error) {
	g := &entity.Group{ID: uuid.New().String(), Name: strings.TrimSpace(in.Name), CreatedAt: time.Now()}
	if err := uc.groups.Create(ctx, g); err != nil {
		return nil, err
	}
	return groupToResponse(g), nil
}

// ListGroups todos los grupos.
func (uc *UserUseCase) ListGroups(ctx context.Context) ([]dto.GroupResponse, error) {
	list, err := uc.groups.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.GroupResponse, 0, len(list))
	for _, g := range list {
		out = append(out, *groupToResponse(g))
	}
	return out, nil
}

// RenameGroup renombra.
func (uc *UserUseCase) RenameGroup(ctx context.Context, id string, in dto.GroupRequest) error {
	if _, err := uc.mustGetGroup(ctx, id); err != nil {
		return err
	}
	return uc.groups.Rename(ctx, id, strings.TrimSpace(in.Name))
}

// DeleteGroup elimina el grupo y sus membresías.
func (uc *UserUseCase) DeleteGroup(ctx context.Context, id string) error {
	if _, err := uc.mustGetGroup(ctx, id); err != nil {
		return err
	}
	return uc.groups.Delete(ctx, id)
}

// SetGroupPermissions reemplaza los permisos del grupo.
func (uc *UserUseCase) SetGroupPermissions(ctx context.Context, id string, perms []string) error {
	if _, err := uc.mustGetGroup(ctx, id); err != nil {
		return err
	}
	for _, p := range perms {
		if !entity.IsKnownPermission(p) {
			return fmt.Errorf("%w: permissão desconhecida %s", domain.ErrInvalidInput, p)
		}
	}
	return uc.groups.SetPermissions(ctx, id, dedupe(perms))
}

// GroupMembers usuarios del grupo.
func (uc *UserUseCase) GroupMembers(ctx context.Context, id string) ([]dto.UserResponse, error) {
	if _, err := uc.mustGetGroup(ctx, id); err != nil {
		return nil, err
	}
	members, err := uc.groups.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(members))
	for _, u := range members {
		out = append(out, *entityToUserResponse(u))
	}
	return out, nil
}

func (uc *UserUseCase) mustGet(ctx context.Context, id string) (*entity.User, error) {
	u, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (uc *UserUseCase) mustGetGroup(ctx context.Context, id string) (*entity.Group, error) {
	g, err := uc.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, domain.ErrNotFound
	}
	return g, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func groupToResponse(g *entity.Group) *dto.GroupResponse {
	perms := g.Permissions
	if perms == nil {
		perms = []string{}
	}
	return &dto.GroupResponse{ID: g.ID, Name: g.Name, Permissions: perms, CreatedAt: g.CreatedAt}
}

func entityToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		Source:      u.Source,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
