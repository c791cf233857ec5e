package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = "id, username, email, first_name, last_name, password_hash, source, is_active, is_staff, is_superuser, last_login, created_at, updated_at"

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Source,
		&u.IsActive, &u.IsStaff, &u.IsSuperuser, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, username, email, first_name, last_name, password_hash, source, is_active, is_staff, is_superuser, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.Source,
		user.IsActive, user.IsStaff, user.IsSuperuser, user.LastLogin, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username %q: %w", user.Username, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update actualiza un usuario.
func (r *UserRepo) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users SET email = $2, first_name = $3, last_name = $4, password_hash = $5, source = $6,
			is_active = $7, is_staff = $8, is_superuser = $9, updated_at = $10
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		user.ID, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.Source,
		user.IsActive, user.IsStaff, user.IsSuperuser, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// GetByUsername búsqueda sin distinguir mayúsculas (los logins de AD llegan en cualquier caso).
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1) LIMIT 1`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// List usuarios por nombre/username/e-mail con paginación.
func (r *UserRepo) List(ctx context.Context, search string, limit, offset int) ([]*entity.User, int, error) {
	where := sq.And{}
	if search != "" {
		p := ilike(search)
		where = append(where, sq.Or{
			sq.ILike{"username": p},
			sq.ILike{"first_name": p},
			sq.ILike{"last_name": p},
			sq.ILike{"email": p},
		})
	}
	total, err := count(ctx, r.q, "count users", psql.Select("COUNT(*)").From("users").Where(where))
	if err != nil {
		return nil, 0, err
	}
	b := psql.Select(userColumns).From("users").Where(where).
		OrderBy("lower(username)").Limit(uint64(limit)).Offset(uint64(offset))
	var list []*entity.User
	err = query(ctx, r.q, "list users", b, func(rows pgx.Rows) error {
		u, err := scanUser(rows)
		if err != nil {
			return err
		}
		list = append(list, u)
		return nil
	})
	return list, total, err
}

func (r *UserRepo) ids(ctx context.Context, op string, b sq.SelectBuilder) ([]string, error) {
	var ids []string
	err := query(ctx, r.q, op, b, func(rows pgx.Rows) error {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	return ids, err
}

// ListActiveIDs ids de todos los usuarios activos.
func (r *UserRepo) ListActiveIDs(ctx context.Context) ([]string, error) {
	return r.ids(ctx, "list active users", psql.Select("id").From("users").Where(sq.Eq{"is_active": true}).OrderBy("id"))
}

// ListIDsWithPermission activos con el permiso directo, por grupo o superusuarios.
func (r *UserRepo) ListIDsWithPermission(ctx context.Context, perm string) ([]string, error) {
	b := psql.Select("u.id").From("users u").
		Where(sq.Eq{"u.is_active": true}).
		Where(sq.Or{
			sq.Eq{"u.is_superuser": true},
			sq.Expr("EXISTS (SELECT 1 FROM user_permissions up WHERE up.user_id = u.id AND up.permission = ?)", perm),
			sq.Expr(`EXISTS (SELECT 1 FROM user_groups ug JOIN group_permissions gp ON gp.group_id = ug.group_id
				WHERE ug.user_id = u.id AND gp.permission = ?)`, perm),
		}).
		OrderBy("u.id")
	return r.ids(ctx, "list users with permission", b)
}

// TouchLastLogin registra el último acceso.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.q.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

// DirectPermissions permisos asignados directamente al usuario.
func (r *UserRepo) DirectPermissions(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx, "direct permissions",
		psql.Select("permission").From("user_permissions").Where(sq.Eq{"user_id": userID}).OrderBy("permission"))
}

// SetDirectPermissions reemplaza los permisos directos.
func (r *UserRepo) SetDirectPermissions(ctx context.Context, userID string, perms []string) error {
	if _, err := exec(ctx, r.q, "clear permissions", psql.Delete("user_permissions").Where(sq.Eq{"user_id": userID})); err != nil {
		return err
	}
	if len(perms) == 0 {
		return nil
	}
	ins := psql.Insert("user_permissions").Columns("user_id", "permission")
	for _, p := range perms {
		ins = ins.Values(userID, p)
	}
	_, err := exec(ctx, r.q, "set permissions", ins.Suffix("ON CONFLICT DO NOTHING"))
	return err
}

// EffectivePermissions unión de permisos directos y de grupos.
func (r *UserRepo) EffectivePermissions(ctx context.Context, userID string) ([]string, error) {
	const q = `
		SELECT permission FROM user_permissions WHERE user_id = $1
		UNION
		SELECT gp.permission FROM user_groups ug JOIN group_permissions gp ON gp.group_id = ug.group_id WHERE ug.user_id = $1
		ORDER BY 1`
	rows, err := r.q.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("effective permissions: %w", err)
	}
	perms, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("effective permissions: %w", err)
	}
	return perms, nil
}

// GroupIDs grupos del usuario.
func (r *UserRepo) GroupIDs(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx, "user groups", psql.Select("group_id").From("user_groups").Where(sq.Eq{"user_id": userID}))
}

var _ repository.GroupRepository = (*GroupRepo)(nil)

// GroupRepo grupos y sus permisos.
type GroupRepo struct {
	q Querier
}

// NewGroupRepository construye el adaptador de grupos.
func NewGroupRepository(q Querier) *GroupRepo {
	return &GroupRepo{q: q}
}

// Create inserta el grupo y sus permisos.
func (r *GroupRepo) Create(ctx context.Context, g *entity.Group) error {
	_, err := exec(ctx, r.q, "insert group",
		psql.Insert("groups").Columns("id", "name", "created_at").Values(g.ID, g.Name, g.CreatedAt))
	if err != nil {
		return err
	}
	return r.SetPermissions(ctx, g.ID, g.Permissions)
}

// Rename cambia el nombre del grupo.
func (r *GroupRepo) Rename(ctx context.Context, id, name string) error {
	n, err := exec(ctx, r.q, "rename group", psql.Update("groups").Set("name", name).Where(sq.Eq{"id": id}))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el grupo (membresías y permisos en cascada).
func (r *GroupRepo) Delete(ctx context.Context, id string) error {
	_, err := exec(ctx, r.q, "delete group", psql.Delete("groups").Where(sq.Eq{"id": id}))
	return err
}

const groupSelect = `
	SELECT g.id, g.name, g.created_at,
		COALESCE(array_agg(gp.permission ORDER BY gp.permission) FILTER (WHERE gp.permission IS NOT NULL), '{}')
	FROM groups g LEFT JOIN group_permissions gp ON gp.group_id = g.id`

func scanGroup(row pgx.Row) (*entity.Group, error) {
	var g entity.Group
	if err := row.Scan(&g.ID, &g.Name, &g.CreatedAt, &g.Permissions); err != nil {
		return nil, err
	}
	return &g, nil
}

// GetByID grupo con permisos.
func (r *GroupRepo) GetByID(ctx context.Context, id string) (*entity.Group, error) {
	g, err := scanGroup(r.q.QueryRow(ctx, groupSelect+` WHERE g.id = $1 GROUP BY g.id`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

// List todos los grupos por nombre.
func (r *GroupRepo) List(ctx context.Context) ([]*entity.Group, error) {
	rows, err := r.q.Query(ctx, groupSelect+` GROUP BY g.id ORDER BY g.name`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()
	var list []*entity.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		list = append(list, g)
	}
	return list, rows.Err()
}

// SetPermissions reemplaza los permisos del grupo.
func (r *GroupRepo) SetPermissions(ctx context.Context, groupID string, perms []string) error {
	if _, err := exec(ctx, r.q, "clear group permissions", psql.Delete("group_permissions").Where(sq.Eq{"group_id": groupID})); err != nil {
		return err
	}
	if len(perms) == 0 {
		return nil
	}
	ins := psql.Insert("group_permissions").Columns("group_id", "permission")
	for _, p := range perms {
		ins = ins.Values(groupID, p)
	}
	_, err := exec(ctx, r.q, "set group permissions", ins.Suffix("ON CONFLICT DO NOTHING"))
	return err
}

// AddMember agrega el usuario al grupo (idempotente).
func (r *GroupRepo) AddMember(ctx context.Context, groupID, userID string) error {
	_, err := exec(ctx, r.q, "add member",
		psql.Insert("user_groups").Columns("user_id", "group_id").Values(userID, groupID).Suffix("ON CONFLICT DO NOTHING"))
	return err
}

// RemoveMember quita el usuario del grupo.
func (r *GroupRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	_, err := exec(ctx, r.q, "remove member",
		psql.Delete("user_groups").Where(sq.Eq{"user_id": userID, "group_id": groupID}))
	return err
}

// ListMembers usuarios del grupo.
func (r *GroupRepo) ListMembers(ctx context.Context, groupID string) ([]*entity.User, error) {
	b := psql.Select("u.id", "u.username", "u.email", "u.first_name", "u.last_name", "u.password_hash", "u.source",
		"u.is_active", "u.is_staff", "u.is_superuser", "u.last_login", "u.created_at", "u.updated_at").
		From("users u").Join("user_groups ug ON ug.user_id = u.id").
		Where(sq.Eq{"ug.group_id": groupID}).OrderBy("lower(u.username)")
	var list []*entity.User
	err := query(ctx, r.q, "list members", b, func(rows pgx.Rows) error {
		u, err := scanUser(rows)
		if err != nil {
			return err
		}
		list = append(list, u)
		return nil
	})
	return list, err
}
