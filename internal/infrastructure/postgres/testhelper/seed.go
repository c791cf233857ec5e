package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/postgres"
)

// SeedUser crea un usuario local activo con username único.
func SeedUser(t *testing.T, pool *pgxpool.Pool) *entity.User {
	t.Helper()
	id := uuid.New().String()
	now := time.Now().UTC().Truncate(time.Microsecond)
	u := &entity.User{
		ID:        id,
		Username:  "u" + id[:8],
		Email:     id[:8] + "@empresa.com",
		FirstName: "Teste",
		Source:    entity.UserSourceLocal,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := postgres.NewUserRepository(pool).Create(context.Background(), u); err != nil {
		t.Fatalf("testhelper: seed user: %v", err)
	}
	return u
}

// SeedCategory crea una categoría de documentos.
func SeedCategory(t *testing.T, pool *pgxpool.Pool) *entity.Category {
	t.Helper()
	c := &entity.Category{ID: uuid.New().String(), Name: "cat-" + uuid.New().String()[:8], CreatedAt: time.Now().UTC()}
	if err := postgres.NewCategoryRepository(pool).Create(context.Background(), c); err != nil {
		t.Fatalf("testhelper: seed category: %v", err)
	}
	return c
}
