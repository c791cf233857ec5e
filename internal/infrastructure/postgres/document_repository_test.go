package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/postgres"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/postgres/testhelper"
)

func newDoc(codigo, categoryID, requesterID string, rev int, status string) *entity.Document {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &entity.Document{
		ID:           uuid.New().String(),
		Codigo:       codigo,
		Name:         "Procedimento " + codigo[:6],
		Revision:     rev,
		Status:       status,
		CategoryID:   categoryID,
		DocumentType: entity.DocTypePDF,
		OriginalFile: "documentos/editaveis/" + codigo + ".docx",
		RequesterID:  requesterID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestDocumentRepo_RevisionesYUltimaAprobada(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	ctx := context.Background()
	repo := postgres.NewDocumentRepository(pool)
	user := testhelper.SeedUser(t, pool)
	cat := testhelper.SeedCategory(t, pool)
	codigo := uuid.New().String()

	maxRev, err := repo.MaxRevision(ctx, codigo)
	require.NoError(t, err)
	assert.Equal(t, -1, maxRev)

	r0 := newDoc(codigo, cat.ID, user.ID, 0, entity.DocStatusApproved)
	r0.TextContent = "uso obrigatório de luvas"
	r1 := newDoc(codigo, cat.ID, user.ID, 1, entity.DocStatusApproved)
	r1.TextContent = "uso obrigatório de luvas nitrílicas"
	require.NoError(t, repo.Create(ctx, r0))
	require.NoError(t, repo.Create(ctx, r1))

	open, err := repo.HasOpenRevision(ctx, codigo)
	require.NoError(t, err)
	assert.False(t, open)

	require.NoError(t, repo.DeactivateApproved(ctx, codigo, r1.ID))
	got, err := repo.GetByID(ctx, r0.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	list, total, err := repo.ListLatestApproved(ctx, entity.DocumentFilter{CategoryID: cat.ID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, r1.ID, list[0].ID)

	r2 := newDoc(codigo, cat.ID, user.ID, 2, entity.DocStatusAwaitingAnalysis)
	require.NoError(t, repo.Create(ctx, r2))
	open, err = repo.HasOpenRevision(ctx, codigo)
	require.NoError(t, err)
	assert.True(t, open)

	maxRev, err = repo.MaxRevision(ctx, codigo)
	require.NoError(t, err)
	assert.Equal(t, 2, maxRev)

	found, err := repo.SearchApprovedText(ctx, []string{"nitrílicas"}, 5)
	require.NoError(t, err)
	require.NotEmpty(t, found)
	assert.Equal(t, r1.ID, found[0].ID)
}

func TestTxRunner_RollbackDescartaCambios(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	ctx := context.Background()
	user := testhelper.SeedUser(t, pool)
	cat := testhelper.SeedCategory(t, pool)
	doc := newDoc(uuid.New().String(), cat.ID, user.ID, 0, entity.DocStatusAwaitingAnalysis)

	err := postgres.NewTxRunner(pool).Run(ctx, func(r ports.TxRepos) error {
		if err := r.Documents.Create(ctx, doc); err != nil {
			return err
		}
		locked, err := r.Documents.GetForUpdate(ctx, doc.ID)
		require.NoError(t, err)
		require.NotNil(t, locked)
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	got, err := postgres.NewDocumentRepository(pool).GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNotificationRepo_Deduplica(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	ctx := context.Background()
	repo := postgres.NewNotificationRepository(pool)
	user := testhelper.SeedUser(t, pool)

	n := &entity.Notification{ID: uuid.New().String(), RecipientID: user.ID, Message: "Documento aprovado", CreatedAt: time.Now()}
	created, err := repo.CreateIfAbsent(ctx, n)
	require.NoError(t, err)
	assert.True(t, created)

	again := *n
	again.ID = uuid.New().String()
	created, err = repo.CreateIfAbsent(ctx, &again)
	require.NoError(t, err)
	assert.False(t, created)

	unread, err := repo.CountUnread(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	changed, err := repo.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
}
