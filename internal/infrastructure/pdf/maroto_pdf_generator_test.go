package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

func TestGroupValues_OrdenDeCamposYMultiples(t *testing.T) {
	fields := []entity.FormField{{ID: "f1"}, {ID: "f2"}, {ID: "f3"}}
	values := []entity.FormValue{
		{FieldID: "f2", Text: "A"},
		{FieldID: "fx", Text: "órfão"},
		{FieldID: "f1", Text: "Sim"},
		{FieldID: "f2", Text: "B"},
		{FieldID: "f3", FileName: "laudo.pdf", FilePath: "formularios/x/laudo.pdf"},
		{FieldID: "f3", Text: ""},
	}

	got := groupValues(fields, values)
	assert.Equal(t, []fieldValue{
		{fieldID: "f1", value: "Sim"},
		{fieldID: "f2", value: "A, B"},
		{fieldID: "f3", value: "laudo.pdf"},
		{fieldID: "fx", value: "órfão"},
	}, got)
}

func TestFormResponses_GeraPDF(t *testing.T) {
	g := NewMarotoRenderer("").WithClock(func() time.Time { return time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC) })
	name := "Ana"
	form := &entity.Form{
		Title:       "Pesquisa de clima",
		Description: "Respostas do trimestre",
		Fields:      []entity.FormField{{ID: "f1", Label: "Como avalia?"}},
	}
	responses := []*entity.FormResponse{{
		ID:            "r1",
		CollectedName: name,
		FormVersion:   2,
		CreatedAt:     time.Date(2024, 5, 9, 14, 0, 0, 0, time.UTC),
		Values:        []entity.FormValue{{FieldID: "f1", Text: "Ótimo"}},
	}}

	data, err := g.FormResponses(form, responses)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	empty, err := g.FormResponses(form, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(empty, []byte("%PDF")))
}

func TestEPIDeliveries_GeraPDF(t *testing.T) {
	seq := "000123"
	data, err := NewMarotoRenderer("RH").EPIDeliveries("Entregas de EPI pendentes", []*entity.EPIDelivery{
		{EmployeeName: "Bruno", EPIDescription: "Luva nitrílica", Lot: "L1", Quantity: 2, Status: entity.EPIStatusPending, DeliveredAt: time.Now()},
		{Contract: "4411", EPI: "BOTA", Quantity: 1, Status: entity.EPIStatusWrittenOff, ERPSequence: &seq, DeliveredAt: time.Now()},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestStatusLabel_IncluyeSecuenciaERP(t *testing.T) {
	seq := "77"
	assert.Equal(t, "Baixado (77)", statusLabel(&entity.EPIDelivery{Status: entity.EPIStatusWrittenOff, ERPSequence: &seq}))
	assert.Equal(t, "Pendente", statusLabel(&entity.EPIDelivery{Status: entity.EPIStatusPending}))
}
