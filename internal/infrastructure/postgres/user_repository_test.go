package postgres_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/postgres"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/postgres/testhelper"
)

func TestUserRepo_PermisosEfectivosUnenGrupos(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	ctx := context.Background()
	users := postgres.NewUserRepository(pool)
	groups := postgres.NewGroupRepository(pool)

	u := testhelper.SeedUser(t, pool)
	require.NoError(t, users.SetDirectPermissions(ctx, u.ID, []string{entity.PermViewBI, entity.PermViewBI}))

	g := &entity.Group{ID: uuid.New().String(), Name: "qualidade-" + u.ID[:6], Permissions: []string{entity.PermAnalyzeDocument}, CreatedAt: time.Now()}
	require.NoError(t, groups.Create(ctx, g))
	require.NoError(t, groups.AddMember(ctx, g.ID, u.ID))

	perms, err := users.EffectivePermissions(ctx, u.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{entity.PermViewBI, entity.PermAnalyzeDocument}, perms)

	ids, err := users.ListIDsWithPermission(ctx, entity.PermAnalyzeDocument)
	require.NoError(t, err)
	assert.Contains(t, ids, u.ID)

	gids, err := users.GroupIDs(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{g.ID}, gids)
}

func TestUserRepo_UsernameCaseInsensitive(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	ctx := context.Background()
	users := postgres.NewUserRepository(pool)
	u := testhelper.SeedUser(t, pool)

	got, err := users.GetByUsername(ctx, strings.ToUpper(u.Username))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	missing, err := users.GetByUsername(ctx, "nao-existe-"+u.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	dup := *u
	dup.ID = uuid.New().String()
	assert.ErrorIs(t, users.Create(ctx, &dup), domain.ErrDuplicate)
}
