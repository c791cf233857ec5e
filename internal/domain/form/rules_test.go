package form_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/form"
)

var now = time.Date(2025, 5, 2, 14, 0, 0, 0, time.UTC)

func tptr(t time.Time) *time.Time { return &t }
func bptr(b bool) *bool           { return &b }

func baseForm() *entity.Form {
	return &entity.Form{
		ID:                 "f1",
		AcceptingResponses: true,
		ShowOnHome:         true,
		Target:             entity.TargetAll,
		Fields: []entity.FormField{
			{ID: "nome", Label: "Nome", Type: entity.FieldShortText, Required: true, Active: true},
			{ID: "nota", Label: "Nota", Type: entity.FieldScale, Active: true},
			{ID: "turnos", Label: "Turnos", Type: entity.FieldCheckbox, Options: []string{"Manhã", "Tarde"}, Active: true},
			{ID: "velho", Label: "Desativado", Type: entity.FieldShortText, Required: true, Active: false},
		},
	}
}

func TestUnavailability(t *testing.T) {
	f := baseForm()
	assert.Empty(t, form.Unavailability(f, 0, now))

	f.OpensAt = tptr(now.Add(time.Hour))
	f.ClosesAt = tptr(now.Add(-time.Hour))
	f.ResponseLimit = 3
	f.AcceptingResponses = false
	msgs := form.Unavailability(f, 3, now)
	assert.Len(t, msgs, 4)
}

func TestValidateSubmission_Valida(t *testing.T) {
	sub := form.Submission{
		Values: map[string][]string{"nome": {"Maria"}, "nota": {"8"}, "turnos": {"Manhã", "Tarde"}},
	}
	assert.Nil(t, form.ValidateSubmission(baseForm(), 0, sub, now))
}

func TestValidateSubmission_ObrigatorioYEscala(t *testing.T) {
	sub := form.Submission{Values: map[string][]string{"nota": {"11"}}}
	errs := form.ValidateSubmission(baseForm(), 0, sub, now)
	require.NotNil(t, errs)
	assert.Contains(t, errs.Fields, "nome")
	assert.Contains(t, errs.Fields, "nota")
	assert.NotContains(t, errs.Fields, "velho", "campos inactivos no se validan")
}

func TestValidateSubmission_NingunaRespuesta(t *testing.T) {
	f := baseForm()
	f.Fields[0].Required = false
	errs := form.ValidateSubmission(f, 0, form.Submission{}, now)
	require.NotNil(t, errs)
	assert.Contains(t, errs.Global, "Preencha pelo menos uma pergunta antes de enviar.")
}

func TestValidateSubmission_NombreAnonimo(t *testing.T) {
	f := baseForm()
	f.CollectName = true
	sub := form.Submission{Values: map[string][]string{"nome": {"x"}}}

	errs := form.ValidateSubmission(f, 0, sub, now)
	require.NotNil(t, errs)
	assert.Len(t, errs.Name, 1)

	sub.Authenticated = true
	assert.Nil(t, form.ValidateSubmission(f, 0, sub, now))
}

func TestValidateSubmission_Archivos(t *testing.T) {
	f := &entity.Form{
		ID: "f2", AcceptingResponses: true,
		Fields: []entity.FormField{{
			ID: "anexo", Label: "Anexo", Type: entity.FieldFile, Active: true, Required: true,
			Validation: entity.FileValidation{MaxFiles: 2, MaxMB: 1, FreeTypes: bptr(false), Categories: []string{"pdf", "imagem"}},
		}},
	}

	ok := form.Submission{Files: map[string][]form.Upload{"anexo": {{FileName: "a.PDF", Size: 1000}, {FileName: "b.png", Size: 10}}}}
	assert.Nil(t, form.ValidateSubmission(f, 0, ok, now))

	bad := form.Submission{Files: map[string][]form.Upload{"anexo": {
		{FileName: "a.exe", Size: 10},
		{FileName: "grande.pdf", Size: 2 * 1024 * 1024},
		{FileName: "semext", Size: 1},
	}}}
	errs := form.ValidateSubmission(f, 0, bad, now)
	require.NotNil(t, errs)
	// excede cantidad + extensión .exe + tamaño + sin extensión
	assert.Len(t, errs.Fields["anexo"], 4)
}

func TestAllowedExtensions_TiposLibresPorDefecto(t *testing.T) {
	free, exts := form.AllowedExtensions(entity.FileValidation{})
	assert.True(t, free)
	assert.Nil(t, exts)
}

func TestInTarget(t *testing.T) {
	f := baseForm()
	assert.True(t, form.InTarget(f, "u1"))
	assert.False(t, form.InTarget(f, ""))

	f.Target = entity.TargetManual
	f.TargetUsers = []string{"u2"}
	assert.False(t, form.InTarget(f, "u1"))
	assert.True(t, form.InTarget(f, "u2"))

	f.Target = entity.TargetHalf
	in := 0
	for i := 0; i < 400; i++ {
		if form.InTarget(f, string(rune('a'+i%26))+time.Duration(i).String()) {
			in++
		}
	}
	assert.InDelta(t, 200, in, 60, "la mitad aproximada de los usuarios debe quedar dentro")
	assert.Equal(t, form.Bucket("f1", "u9"), form.Bucket("f1", "u9"), "el bucket es determinístico")
}

func TestShouldShowOnHome(t *testing.T) {
	f := baseForm()
	assert.True(t, form.ShouldShowOnHome(f, "u1", nil, now))

	answered := &entity.FormUserState{LastAnsweredAt: tptr(now.Add(-2 * time.Hour))}
	assert.False(t, form.ShouldShowOnHome(f, "u1", answered, now), "sin repetición no vuelve a aparecer")

	f.RepeatEveryMinutes = 60
	assert.True(t, form.ShouldShowOnHome(f, "u1", answered, now))
	f.RepeatEveryMinutes = 180
	assert.False(t, form.ShouldShowOnHome(f, "u1", answered, now))

	assert.False(t, form.ShouldShowOnHome(f, "u1", &entity.FormUserState{Dismissed: true}, now))

	f.ShowOnHome = false
	assert.False(t, form.ShouldShowOnHome(f, "u1", nil, now))
}

func TestStoredValue_CheckboxUneConComa(t *testing.T) {
	f := baseForm()
	sub := form.Submission{Values: map[string][]string{"turnos": {"Manhã", "", "Tarde"}}}
	assert.Equal(t, "Manhã, Tarde", form.StoredValue(&f.Fields[2], sub))
}
