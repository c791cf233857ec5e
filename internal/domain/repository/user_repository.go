package repository

import (
	"context"
	"time"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para usuarios y sus permisos directos.
// Los Get devuelven (nil, nil) cuando no existe el registro.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	List(ctx context.Context, search string, limit, offset int) ([]*entity.User, int, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
	// ListIDsWithPermission usuarios activos con el permiso (directo, por grupo o superuser).
	ListIDsWithPermission(ctx context.Context, perm string) ([]string, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	DirectPermissions(ctx context.Context, userID string) ([]string, error)
	SetDirectPermissions(ctx context.Context, userID string, perms []string) error
	// EffectivePermissions unión de permisos directos y de grupos.
	EffectivePermissions(ctx context.Context, userID string) ([]string, error)
	GroupIDs(ctx context.Context, userID string) ([]string, error)
}

// GroupRepository puerto de persistencia para grupos.
type GroupRepository interface {
	Create(ctx context.Context, group *entity.Group) error
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.Group, error)
	List(ctx context.Context) ([]*entity.Group, error)
	SetPermissions(ctx context.Context, groupID string, perms []string) error
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	ListMembers(ctx context.Context, groupID string) ([]*entity.User, error)
}
