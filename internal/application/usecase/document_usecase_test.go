package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/application/usecase"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

var fixedNow = time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)

type docFixture struct {
	uc        *usecase.DocumentUseCase
	docs      *fakeDocs
	storage   *memStorage
	converter *fakeConverter
	extractor *fakeExtractor
	events    *fakeEvents
}

func newDocFixture(docs ...*entity.Document) *docFixture {
	f := &docFixture{
		docs:      newFakeDocs(docs...),
		storage:   newMemStorage(),
		converter: &fakeConverter{},
		extractor: &fakeExtractor{text: "procedimento de segurança"},
		events:    &fakeEvents{},
	}
	cats := &fakeCategories{byID: map[string]*entity.Category{
		"cat-ok":       {ID: "cat-ok", Name: "Qualidade"},
		"cat-bloqueio": {ID: "cat-bloqueio", Name: "Antiga", Blocked: true},
	}}
	tx := &fakeTx{repos: ports.TxRepos{Documents: f.docs}}
	f.uc = usecase.NewDocumentUseCase(f.docs, cats, tx, f.storage, f.converter, f.extractor, f.events, nil).
		WithClock(func() time.Time { return fixedNow })
	return f
}

func requester() dto.Principal {
	return dto.Principal{UserID: "u-req", Username: "req", Permissions: []string{entity.PermAddDocument}}
}

func strp(s string) *string { return &s }

func awaitingApprover(id, codigo string, rev int) *entity.Document {
	return &entity.Document{
		ID:           id,
		Codigo:       codigo,
		Name:         "Manual de Qualidade",
		Revision:     rev,
		Status:       entity.DocStatusAwaitingApprover,
		CategoryID:   "cat-ok",
		DocumentType: entity.DocTypePDF,
		OriginalFile: "documentos/editaveis/manual.docx",
		RequesterID:  "u-req",
		DrafterID:    strp("u-elab"),
		ApproverID:   strp("u-aprov"),
		IsActive:     true,
	}
}

func approver() dto.Principal {
	return dto.Principal{UserID: "u-aprov", Username: "aprov", Permissions: []string{entity.PermApproveDocument}}
}

func TestDocumentCreate_GuardaEditableYPublicaEvento(t *testing.T) {
	f := newDocFixture()

	resp, err := f.uc.Create(context.Background(), requester(), dto.CreateDocumentRequest{
		Name:       " Manual de Qualidade ",
		CategoryID: "cat-ok",
		File:       dto.Upload{FileName: "manual.DOCX", Data: []byte("docx")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Manual de Qualidade", resp.Name)
	assert.Equal(t, 0, resp.Revision)
	assert.Equal(t, entity.DocStatusAwaitingAnalysis, resp.Status)
	assert.Equal(t, entity.DocTypePDF, resp.DocumentType)
	assert.False(t, resp.HasPDF)

	stored := f.docs.byID[resp.ID]
	require.NotNil(t, stored)
	assert.True(t, f.storage.has(stored.OriginalFile))
	assert.Contains(t, stored.OriginalFile, "documentos/editaveis/manual-de-qualidade_")
	assert.Contains(t, stored.OriginalFile, ".docx")

	require.Len(t, f.events.events, 1)
	assert.Equal(t, "", f.events.events[0].From)
	assert.Equal(t, entity.DocStatusAwaitingAnalysis, f.events.events[0].To)
}

func TestDocumentCreate_CategoriaBloqueada(t *testing.T) {
	f := newDocFixture()

	_, err := f.uc.Create(context.Background(), requester(), dto.CreateDocumentRequest{
		Name:       "Velho",
		CategoryID: "cat-bloqueio",
		File:       dto.Upload{FileName: "a.docx", Data: []byte("x")},
	})
	assert.ErrorIs(t, err, domain.ErrCategoryBlocked)
	assert.Empty(t, f.docs.byID)
}

func TestDocumentCreate_PDFManualSoComPlanilha(t *testing.T) {
	f := newDocFixture()

	_, err := f.uc.Create(context.Background(), requester(), dto.CreateDocumentRequest{
		Name:       "Doc",
		CategoryID: "cat-ok",
		File:       dto.Upload{FileName: "a.docx", Data: []byte("x")},
		PDF:        &dto.Upload{FileName: "a.pdf", Data: []byte("%PDF")},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	resp, err := f.uc.Create(context.Background(), requester(), dto.CreateDocumentRequest{
		Name:       "Plano",
		CategoryID: "cat-ok",
		File:       dto.Upload{FileName: "plano.xlsx", Data: []byte("x")},
		PDF:        &dto.Upload{FileName: "plano.pdf", Data: []byte("%PDF")},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DocTypePDFSpreadsheet, resp.DocumentType)
	assert.True(t, resp.HasPDF)
}

func TestDocumentCreate_FormatoInvalido(t *testing.T) {
	f := newDocFixture()

	_, err := f.uc.Create(context.Background(), requester(), dto.CreateDocumentRequest{
		Name:       "Imagem",
		CategoryID: "cat-ok",
		File:       dto.Upload{FileName: "foto.png", Data: []byte("x")},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentNewRevision_RechazaConRevisionAbierta(t *testing.T) {
	open := awaitingApprover("d1", "cod-1", 0)
	f := newDocFixture(open)

	_, err := f.uc.NewRevision(context.Background(), requester(), "d1", dto.NewRevisionRequest{
		File: dto.Upload{FileName: "v2.docx", Data: []byte("x")},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, f.docs.byID, 1)
	assert.Empty(t, f.storage.files)
}

func TestDocumentNewRevision_NumeraSobreElMaximo(t *testing.T) {
	approved := awaitingApprover("d1", "cod-1", 3)
	approved.Status = entity.DocStatusApproved
	f := newDocFixture(approved)

	resp, err := f.uc.NewRevision(context.Background(), requester(), "d1", dto.NewRevisionRequest{
		File: dto.Upload{FileName: "v4.docx", Data: []byte("x")},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Revision)
	assert.Equal(t, "Manual de Qualidade", resp.Name)
	require.NotNil(t, resp.RootID)
	assert.Equal(t, "d1", *resp.RootID)
}

func TestDocumentTransition_AprovarGeraPDFEIndexa(t *testing.T) {
	previous := awaitingApprover("d0", "cod-1", 0)
	previous.Status = entity.DocStatusApproved
	pending := awaitingApprover("d1", "cod-1", 1)
	f := newDocFixture(previous, pending)

	resp, err := f.uc.Transition(context.Background(), approver(), "d1", dto.TransitionRequest{Action: "aprovar"})
	require.NoError(t, err)

	assert.Equal(t, entity.DocStatusApproved, resp.Status)
	assert.True(t, resp.HasPDF)
	assert.Equal(t, 1, f.converter.calls)

	stored := f.docs.byID["d1"]
	assert.Equal(t, "documentos/pdf/manual-de-qualidade_v1.pdf", stored.PDFFile)
	assert.True(t, f.storage.has(stored.PDFFile))
	assert.Equal(t, "procedimento de segurança", stored.TextContent)
	require.NotNil(t, stored.ApprovedAt)
	assert.True(t, stored.ApprovedAt.Equal(fixedNow))

	assert.Equal(t, []string{"d0"}, f.docs.deactivated)
	assert.False(t, f.docs.byID["d0"].IsActive)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, entity.DocStatusAwaitingApprover, f.events.events[0].From)
	assert.Equal(t, entity.DocStatusApproved, f.events.events[0].To)
	assert.Equal(t, "u-elab", f.events.events[0].DrafterID)
}

func TestDocumentTransition_FalhaDeConversaoAbortaTransicao(t *testing.T) {
	f := newDocFixture(awaitingApprover("d1", "cod-1", 0))
	f.converter.err = errBoom

	_, err := f.uc.Transition(context.Background(), approver(), "d1", dto.TransitionRequest{Action: "aprovar"})
	assert.ErrorIs(t, err, domain.ErrConversionFailed)

	stored := f.docs.byID["d1"]
	assert.Equal(t, entity.DocStatusAwaitingApprover, stored.Status)
	assert.Empty(t, stored.PDFFile)
	assert.Nil(t, stored.ApprovedAt)
	assert.Empty(t, f.events.events)
}

func TestDocumentTransition_AprovadorErrado(t *testing.T) {
	f := newDocFixture(awaitingApprover("d1", "cod-1", 0))
	other := dto.Principal{UserID: "u-outro", Permissions: []string{entity.PermApproveDocument}}

	_, err := f.uc.Transition(context.Background(), other, "d1", dto.TransitionRequest{Action: "aprovar"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Zero(t, f.converter.calls)
}

func TestDocumentTransition_PlanilhaPublicaCopia(t *testing.T) {
	doc := awaitingApprover("d1", "cod-1", 2)
	doc.DocumentType = entity.DocTypeSpreadsheet
	doc.OriginalFile = "documentos/editaveis/plano.xlsx"
	f := newDocFixture(doc)
	f.storage.files[doc.OriginalFile] = []byte("xlsx")

	resp, err := f.uc.Transition(context.Background(), approver(), "d1", dto.TransitionRequest{Action: "aprovar"})
	require.NoError(t, err)
	assert.True(t, resp.HasPDF)
	assert.Zero(t, f.converter.calls)
	assert.Equal(t, "documentos/spreadsheet/manual-de-qualidade_v2.xlsx", f.docs.byID["d1"].PDFFile)
	assert.Equal(t, []string{"plano.xlsx"}, f.extractor.names)
}

func TestDocumentTransition_NoEncontrado(t *testing.T) {
	f := newDocFixture()
	_, err := f.uc.Transition(context.Background(), approver(), "nada", dto.TransitionRequest{Action: "aprovar"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentGet_RegistraAcceso(t *testing.T) {
	f := newDocFixture(awaitingApprover("d1", "cod-1", 0))

	resp, err := f.uc.Get(context.Background(), approver(), "d1")
	require.NoError(t, err)
	assert.Equal(t, 1, f.docs.accesses)
	assert.Contains(t, resp.Actions, "aprovar")
}

func approved(doc *entity.Document) *entity.Document {
	doc.Status = entity.DocStatusApproved
	return doc
}

func TestDocumentNewRevision_LimiteDeRevisoes(t *testing.T) {
	f := newDocFixture(approved(awaitingApprover("d1", "cod-1", entity.MaxRevision)))

	_, err := f.uc.NewRevision(context.Background(), requester(), "d1", dto.NewRevisionRequest{
		File: dto.Upload{FileName: "v101.docx", Data: []byte("x")},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, f.docs.byID, 1)
	assert.Empty(t, f.storage.files)
}

func TestDocumentGeneratePDF_PorTipo(t *testing.T) {
	t.Run("pdf reconverte o editável", func(t *testing.T) {
		doc := approved(awaitingApprover("d1", "cod-1", 1))
		doc.PDFFile = "documentos/pdf/antigo.pdf"
		f := newDocFixture(doc)

		resp, err := f.uc.GeneratePDF(context.Background(), "d1")
		require.NoError(t, err)
		assert.True(t, resp.HasPDF)
		assert.Equal(t, 1, f.converter.calls)
		assert.Equal(t, "documentos/pdf/manual-de-qualidade_v1.pdf", f.docs.byID["d1"].PDFFile)
		assert.True(t, f.storage.has("documentos/pdf/manual-de-qualidade_v1.pdf"))
	})

	t.Run("planilha copia o editável", func(t *testing.T) {
		doc := approved(awaitingApprover("d1", "cod-1", 2))
		doc.DocumentType = entity.DocTypeSpreadsheet
		doc.OriginalFile = "documentos/editaveis/plano.xlsx"
		doc.PDFFile = "documentos/spreadsheet/manual-de-qualidade_v2.xlsx"
		f := newDocFixture(doc)
		f.storage.files[doc.OriginalFile] = []byte("xlsx novo")

		_, err := f.uc.GeneratePDF(context.Background(), "d1")
		require.NoError(t, err)
		assert.Zero(t, f.converter.calls)
		assert.Equal(t, []byte("xlsx novo"), f.storage.files["documentos/spreadsheet/manual-de-qualidade_v2.xlsx"])
	})

	t.Run("pdf_spreadsheet conserva o PDF enviado", func(t *testing.T) {
		doc := approved(awaitingApprover("d1", "cod-1", 0))
		doc.DocumentType = entity.DocTypePDFSpreadsheet
		doc.OriginalFile = "documentos/editaveis/plano.xlsx"
		doc.PDFFile = "documentos/pdf/plano.pdf"
		f := newDocFixture(doc)

		resp, err := f.uc.GeneratePDF(context.Background(), "d1")
		require.NoError(t, err)
		assert.True(t, resp.HasPDF)
		assert.Zero(t, f.converter.calls)
		assert.Equal(t, "documentos/pdf/plano.pdf", f.docs.byID["d1"].PDFFile)
	})

	t.Run("falha de conversão", func(t *testing.T) {
		doc := approved(awaitingApprover("d1", "cod-1", 1))
		doc.PDFFile = "documentos/pdf/antigo.pdf"
		f := newDocFixture(doc)
		f.converter.err = errBoom

		_, err := f.uc.GeneratePDF(context.Background(), "d1")
		assert.ErrorIs(t, err, domain.ErrConversionFailed)
		assert.Equal(t, "documentos/pdf/antigo.pdf", f.docs.byID["d1"].PDFFile)
	})
}

func TestDocumentReplacePDF(t *testing.T) {
	f := newDocFixture(approved(awaitingApprover("d1", "cod-1", 3)))

	_, err := f.uc.ReplacePDF(context.Background(), "d1", dto.Upload{FileName: "novo.docx", Data: []byte("x")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	resp, err := f.uc.ReplacePDF(context.Background(), "d1", dto.Upload{FileName: "novo.PDF", Data: []byte("%PDF manual")})
	require.NoError(t, err)
	assert.True(t, resp.HasPDF)

	stored := f.docs.byID["d1"]
	assert.Equal(t, "documentos/pdf/manual-de-qualidade_v3.pdf", stored.PDFFile)
	assert.Equal(t, []byte("%PDF manual"), f.storage.files[stored.PDFFile])
	// aprovado: reindexa a partir do PDF novo
	assert.Equal(t, "procedimento de segurança", stored.TextContent)
	assert.Zero(t, f.converter.calls)
}

func TestDocumentRename_RegistraHistorico(t *testing.T) {
	f := newDocFixture(approved(awaitingApprover("d1", "cod-1", 0)))

	resp, err := f.uc.Rename(context.Background(), approver(), "d1", "  Manual Revisado ")
	require.NoError(t, err)
	assert.Equal(t, "Manual Revisado", resp.Name)
	assert.Equal(t, "Manual Revisado", f.docs.byID["d1"].Name)

	require.Len(t, f.docs.nameChanges, 1)
	change := f.docs.nameChanges[0]
	assert.Equal(t, "Manual de Qualidade", change.OldName)
	assert.Equal(t, "Manual Revisado", change.NewName)
	require.NotNil(t, change.UserID)
	assert.Equal(t, "u-aprov", *change.UserID)
	assert.True(t, change.At.Equal(fixedNow))
}

func TestDocumentRename_MesmoNomeNaoRegistra(t *testing.T) {
	f := newDocFixture(approved(awaitingApprover("d1", "cod-1", 0)))

	resp, err := f.uc.Rename(context.Background(), approver(), "d1", "Manual de Qualidade")
	require.NoError(t, err)
	assert.Equal(t, "Manual de Qualidade", resp.Name)
	assert.Empty(t, f.docs.nameChanges)

	_, err = f.uc.Rename(context.Background(), approver(), "d1", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentSetActive(t *testing.T) {
	f := newDocFixture(approved(awaitingApprover("d1", "cod-1", 0)))

	require.NoError(t, f.uc.SetActive(context.Background(), "d1", false))
	assert.False(t, f.docs.byID["d1"].IsActive)
	assert.True(t, f.docs.byID["d1"].UpdatedAt.Equal(fixedNow))

	require.NoError(t, f.uc.SetActive(context.Background(), "d1", true))
	assert.True(t, f.docs.byID["d1"].IsActive)

	assert.ErrorIs(t, f.uc.SetActive(context.Background(), "nada", true), domain.ErrNotFound)
}

func TestDocumentDelete_AuditaERemoveArquivos(t *testing.T) {
	doc := approved(awaitingApprover("d1", "cod-1", 4))
	doc.PDFFile = "documentos/pdf/manual-de-qualidade_v4.pdf"
	f := newDocFixture(doc)
	f.storage.files[doc.OriginalFile] = []byte("docx")
	f.storage.files[doc.PDFFile] = []byte("%PDF")

	require.NoError(t, f.uc.Delete(context.Background(), approver(), "d1"))

	assert.Empty(t, f.docs.byID)
	require.Len(t, f.docs.deleted, 1)
	audit := f.docs.deleted[0]
	assert.Equal(t, "u-aprov", audit.UserID)
	assert.Equal(t, "Manual de Qualidade", audit.DocumentName)
	assert.Equal(t, 4, audit.Revision)
	assert.True(t, audit.At.Equal(fixedNow))
	assert.Empty(t, f.storage.files)

	assert.ErrorIs(t, f.uc.Delete(context.Background(), approver(), "d1"), domain.ErrNotFound)
}
