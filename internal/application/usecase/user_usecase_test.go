package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/usecase"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

func delegator() dto.Principal {
	return dto.Principal{
		UserID:      "u-chefe",
		Username:    "chefe",
		Permissions: []string{entity.PermDelegatePermissions, entity.PermViewDocuments, entity.PermViewBI},
	}
}

func TestSetDirectPermissions_DelegaSoPermissoesProprias(t *testing.T) {
	users := portalUsers()
	users.direct["u-req"] = []string{entity.PermManageForms}
	uc := usecase.NewUserUseCase(users, nil, nil)

	got, err := uc.SetDirectPermissions(context.Background(), delegator(), "u-req", []string{entity.PermViewBI})
	require.NoError(t, err)
	// manage_forms no es del delegador: se conserva
	assert.ElementsMatch(t, []string{entity.PermViewBI, entity.PermManageForms}, got)
	assert.ElementsMatch(t, got, users.direct["u-req"])
}

func TestSetDirectPermissions_DelegadorNaoConcedeAlheias(t *testing.T) {
	users := portalUsers()
	uc := usecase.NewUserUseCase(users, nil, nil)

	_, err := uc.SetDirectPermissions(context.Background(), delegator(), "u-req", []string{entity.PermManageUsers})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, users.direct["u-req"])
}

func TestSetDirectPermissions_NaoDelegaParaSiMesmo(t *testing.T) {
	users := portalUsers()
	users.byID["u-chefe"] = &entity.User{ID: "u-chefe", Username: "chefe", IsActive: true}
	uc := usecase.NewUserUseCase(users, nil, nil)

	_, err := uc.SetDirectPermissions(context.Background(), delegator(), "u-chefe", []string{entity.PermViewBI})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSetDirectPermissions_GestorSubstituiTudo(t *testing.T) {
	users := portalUsers()
	users.direct["u-req"] = []string{entity.PermManageForms}
	uc := usecase.NewUserUseCase(users, nil, nil)
	admin := dto.Principal{UserID: "u-admin", Permissions: []string{entity.PermManageUsers}}

	got, err := uc.SetDirectPermissions(context.Background(), admin, "u-req", []string{entity.PermViewEPI, entity.PermViewEPI})
	require.NoError(t, err)
	assert.Equal(t, []string{entity.PermViewEPI}, got)
}

func TestSetDirectPermissions_PermissaoDesconhecida(t *testing.T) {
	uc := usecase.NewUserUseCase(portalUsers(), nil, nil)
	admin := dto.Principal{UserID: "u-admin", Permissions: []string{entity.PermManageUsers}}

	_, err := uc.SetDirectPermissions(context.Background(), admin, "u-req", []string{"app.inexistente"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSetDirectPermissions_SemPermissao(t *testing.T) {
	uc := usecase.NewUserUseCase(portalUsers(), nil, nil)

	_, err := uc.SetDirectPermissions(context.Background(), dto.Principal{UserID: "u-x"}, "u-req", nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
