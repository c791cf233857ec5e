package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
	"github.com/jhoicas/portal-intranet/pkg/jwt"
	"github.com/jhoicas/portal-intranet/pkg/logger"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación: login (AD o local) y usuario actual.
type AuthUseCase struct {
	userRepo  repository.UserRepository
	directory ports.Directory // nil = sólo cuentas locales
	jwtCfg    JWTConfig
	log       *logger.Logger
	now       func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, directory ports.Directory, jwtCfg JWTConfig, log *logger.Logger) *AuthUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthUseCase{userRepo: userRepo, directory: directory, jwtCfg: jwtCfg, log: log, now: time.Now}
}

// Login autentica contra el AD cuando está habilitado (salvo cuentas locales) y emite el JWT.
// Credenciales inválidas -> ErrUnauthorized; usuario inactivo -> ErrForbidden.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if username == "" || in.Password == "" {
		return nil, domain.ErrUnauthorized
	}
	// acepta "DOMINIO\usuario" y "usuario@dominio"
	if i := strings.LastIndex(username, `\`); i >= 0 {
		username = username[i+1:]
	}
	if i := strings.Index(username, "@"); i > 0 {
		username = username[:i]
	}

	user, err := uc.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	useDirectory := uc.directory != nil && (user == nil || user.Source == entity.UserSourceAD)
	if useDirectory {
		user, err = uc.loginDirectory(ctx, user, username, in.Password)
		if err != nil {
			return nil, err
		}
	} else {
		if user == nil || user.PasswordHash == "" {
			return nil, domain.ErrUnauthorized
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
			return nil, domain.ErrUnauthorized
		}
	}
	if !user.IsActive {
		return nil, domain.ErrForbidden
	}

	perms, err := uc.userRepo.EffectivePermissions(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	if err := uc.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		uc.log.Warn().Err(err).Str("user_id", user.ID).Msg("no se pudo registrar last_login")
	}
	user.LastLogin = &now

	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Username, RoleOf(user), perms, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:     token,
		ExpiresAt: now.Add(time.Duration(uc.jwtCfg.ExpMinutes) * time.Minute),
		User:      *toUserResponse(user),
	}, nil
}

// loginDirectory hace el bind en el AD y crea o refresca el usuario local.
func (uc *AuthUseCase) loginDirectory(ctx context.Context, user *entity.User, username, password string) (*entity.User, error) {
	du, err := uc.directory.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrDirectoryOffline) {
			uc.log.Error().Err(err).Str("username", username).Msg("AD indisponible")
		}
		return nil, err
	}
	now := uc.now()
	if user == nil {
		user = &entity.User{
			ID:        uuid.New().String(),
			Username:  username,
			Source:    entity.UserSourceAD,
			IsActive:  true,
			CreatedAt: now,
		}
		applyDirectory(user, du)
		user.UpdatedAt = now
		if err := uc.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("crear usuario AD: %w", err)
		}
		uc.log.Info().Str("username", username).Msg("usuario AD creado en el primer login")
		return user, nil
	}
	applyDirectory(user, du)
	user.UpdatedAt = now
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("actualizar usuario AD: %w", err)
	}
	return user, nil
}

func applyDirectory(u *entity.User, du *ports.DirectoryUser) {
	if du == nil {
		return
	}
	if du.FirstName != "" {
		u.FirstName = du.FirstName
	}
	if du.LastName != "" {
		u.LastName = du.LastName
	}
	if du.Email != "" {
		u.Email = strings.ToLower(du.Email)
	}
}

// Me devuelve el usuario y sus permisos efectivos (el superuser recibe el catálogo completo).
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*dto.MeResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	var perms []string
	if user.IsSuperuser {
		for _, p := range entity.PermissionCatalog {
			perms = append(perms, p.Codename)
		}
	} else if perms, err = uc.userRepo.EffectivePermissions(ctx, user.ID); err != nil {
		return nil, err
	}
	groups, err := uc.userRepo.GroupIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []string{}
	}
	if groups == nil {
		groups = []string{}
	}
	return &dto.MeResponse{User: *toUserResponse(user), Permissions: perms, GroupIDs: groups}, nil
}

// RoleOf rol del token según los flags del usuario.
func RoleOf(u *entity.User) string {
	switch {
	case u.IsSuperuser:
		return jwt.RoleSuperuser
	case u.IsStaff:
		return jwt.RoleStaff
	default:
		return jwt.RoleUser
	}
}

func toUserResponse(u *entity.User) *dto.UserResponse {
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
