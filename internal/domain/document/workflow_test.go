package document_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/document"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func ptr(s string) *string { return &s }

func analyst() document.Actor {
	return document.Actor{UserID: "ana", Permissions: map[string]bool{entity.PermAnalyzeDocument: true}}
}

func newDoc() *entity.Document {
	return &entity.Document{ID: "d1", Status: entity.DocStatusAwaitingAnalysis, RequesterID: "req"}
}

func TestTransition_FlujoCompletoHastaAprobado(t *testing.T) {
	doc := newDoc()

	from, err := document.Transition(doc, document.ActionConcludeAnalysis, analyst(),
		document.Input{DrafterID: "ela", ApproverID: "apr"}, now)
	require.NoError(t, err)
	assert.Equal(t, entity.DocStatusAwaitingAnalysis, from)
	assert.Equal(t, entity.DocStatusAnalysisDone, doc.Status)
	assert.Equal(t, "ana", *doc.AnalystID)
	assert.Equal(t, "ela", *doc.DrafterID)
	assert.Equal(t, "apr", *doc.ApproverID)

	_, err = document.Transition(doc, document.ActionSendToDrafter, analyst(), document.Input{}, now)
	require.NoError(t, err)
	assert.Equal(t, entity.DocStatusAwaitingDrafter, doc.Status)

	_, err = document.Transition(doc, document.ActionDrafterApprove, document.Actor{UserID: "ela"}, document.Input{}, now)
	require.NoError(t, err)
	assert.Equal(t, entity.DocStatusAwaitingApprover, doc.Status)
	require.NotNil(t, doc.DrafterAt)

	approver := document.Actor{UserID: "apr", Permissions: map[string]bool{entity.PermApproveDocument: true}}
	_, err = document.Transition(doc, document.ActionApprove, approver, document.Input{}, now)
	require.NoError(t, err)
	assert.Equal(t, entity.DocStatusApproved, doc.Status)
	assert.True(t, doc.IsActive)
	assert.True(t, doc.IsTerminal())
}

func TestTransition_SaltoDeEstadoRechazado(t *testing.T) {
	doc := newDoc()
	approver := document.Actor{UserID: "apr", Permissions: map[string]bool{entity.PermApproveDocument: true}}

	_, err := document.Transition(doc, document.ActionApprove, approver, document.Input{}, now)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, entity.DocStatusAwaitingAnalysis, doc.Status, "el estado no debe cambiar")
}

func TestTransition_AprobadoEsTerminal(t *testing.T) {
	doc := newDoc()
	doc.Status = entity.DocStatusApproved
	_, err := document.Transition(doc, document.ActionReject, analyst(), document.Input{Reason: "x"}, now)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransition_ElaboradorEquivocadoEsForbidden(t *testing.T) {
	doc := newDoc()
	doc.Status = entity.DocStatusAwaitingDrafter
	doc.DrafterID = ptr("ela")

	_, err := document.Transition(doc, document.ActionDrafterApprove, document.Actor{UserID: "otro"}, document.Input{}, now)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestTransition_AprobadorSinPermisoEsForbidden(t *testing.T) {
	doc := newDoc()
	doc.Status = entity.DocStatusAwaitingApprover
	doc.ApproverID = ptr("apr")

	_, err := document.Transition(doc, document.ActionApprove, document.Actor{UserID: "apr"}, document.Input{}, now)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestTransition_SuperuserActuaComoAprobador(t *testing.T) {
	doc := newDoc()
	doc.Status = entity.DocStatusAwaitingApprover
	doc.ApproverID = ptr("apr")

	_, err := document.Transition(doc, document.ActionApprove, document.Actor{UserID: "root", IsSuperuser: true}, document.Input{}, now)
	require.NoError(t, err)
	assert.Equal(t, entity.DocStatusApproved, doc.Status)
}

func TestTransition_ReprovarExigeMotivo(t *testing.T) {
	doc := newDoc()
	_, err := document.Transition(doc, document.ActionReject, analyst(), document.Input{Reason: "   "}, now)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = document.Transition(doc, document.ActionReject, analyst(), document.Input{Reason: "fora do padrão"}, now)
	require.NoError(t, err)
	assert.Equal(t, entity.DocStatusRejected, doc.Status)
	assert.Equal(t, "fora do padrão", doc.RejectionReason)
	require.NotNil(t, doc.RejectedAt)
}

func TestTransition_ConcluirAnaliseExigeResponsaveis(t *testing.T) {
	doc := newDoc()
	_, err := document.Transition(doc, document.ActionConcludeAnalysis, analyst(), document.Input{DrafterID: "ela"}, now)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAvailableActions(t *testing.T) {
	doc := newDoc()
	doc.Status = entity.DocStatusAwaitingDrafter
	doc.DrafterID = ptr("ela")

	acts := document.AvailableActions(doc, document.Actor{UserID: "ela"})
	assert.Equal(t, []document.Action{document.ActionDrafterApprove, document.ActionReject}, acts)

	assert.Empty(t, document.AvailableActions(doc, document.Actor{UserID: "outro"}))
}

func TestClassifyUpload(t *testing.T) {
	cases := map[string]string{
		"procedimento.DOCX": entity.DocTypePDF,
		"it.odt":            entity.DocTypePDF,
		"velho.doc":         entity.DocTypePDF,
		"planilha.xlsx":     entity.DocTypeSpreadsheet,
		"calc.ods":          entity.DocTypeSpreadsheet,
	}
	for name, want := range cases {
		got, err := document.ClassifyUpload(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := document.ClassifyUpload("foto.png")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
