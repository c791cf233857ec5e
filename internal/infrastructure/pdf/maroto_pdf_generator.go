// Package pdf genera los relatórios en PDF del portal con Maroto v2.
//
// Layout común (A4):
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: título del relatório │ fecha de emisión            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CUERPO: bloques de resposta / tabla de entregas            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: totales                                            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

var _ ports.ReportRenderer = (*MarotoRenderer)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorStripe  = &props.Color{Red: 240, Green: 244, Blue: 248}
)

// caracteres aproximados por línea de ancho completo con fuente 8.
const charsPerLine = 110

// ── Renderer ──────────────────────────────────────────────────────────────────

// MarotoRenderer implementa ports.ReportRenderer.
type MarotoRenderer struct {
	author string
	now    func() time.Time
}

// NewMarotoRenderer construye el renderer; author va a los metadatos del PDF.
func NewMarotoRenderer(author string) *MarotoRenderer {
	return &MarotoRenderer{author: nonEmpty(author, "Portal Intranet"), now: time.Now}
}

// WithClock fija el reloj (tests).
func (g *MarotoRenderer) WithClock(now func() time.Time) *MarotoRenderer {
	g.now = now
	return g
}

func (g *MarotoRenderer) newDoc(title string) core.Maroto {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title, true).
		WithAuthor(g.author, true).
		Build()
	return maroto.New(cfg)
}

func generate(m core.Maroto) ([]byte, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: gerar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// FormResponses un bloque por resposta, con pregunta y valor.
func (g *MarotoRenderer) FormResponses(form *entity.Form, responses []*entity.FormResponse) ([]byte, error) {
	m := g.newDoc("Respostas - " + form.Title)

	m.AddRows(headerRow(form.Title, fmt.Sprintf("%d resposta(s)", len(responses)), g.now()))
	if form.Description != "" {
		m.AddRows(paragraphRows(form.Description, colorGray)...)
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	labels := make(map[string]string, len(form.Fields))
	for _, f := range form.Fields {
		labels[f.ID] = f.Label
	}

	for i, r := range responses {
		m.AddRows(responseHeaderRow(i+1, r))
		for _, fv := range groupValues(form.Fields, r.Values) {
			m.AddRows(row.New(5).Add(col.New(12).Add(
				text.New(nonEmpty(labels[fv.fieldID], "(campo removido)"), props.Text{
					Style: fontstyle.Bold, Size: 8, Top: 1, Left: 2,
				}),
			)))
			m.AddRows(paragraphRows(nonEmpty(fv.value, "-"), nil)...)
		}
		m.AddRows(line.NewRow(2, props.Line{Color: colorGray, Thickness: 0.2}))
	}

	if len(responses) == 0 {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New("Nenhuma resposta registrada.", props.Text{Size: 9, Top: 3, Align: align.Center, Color: colorGray}),
		)))
	}
	return generate(m)
}

// EPIDeliveries tabla de entregas con totales por estado.
func (g *MarotoRenderer) EPIDeliveries(title string, deliveries []*entity.EPIDelivery) ([]byte, error) {
	m := g.newDoc(title)

	m.AddRows(headerRow(title, fmt.Sprintf("%d entrega(s)", len(deliveries)), g.now()))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(epiTableHeaderRow())

	qty := map[string]int{}
	for i, d := range deliveries {
		m.AddRows(epiDetailRow(d, i%2 == 1))
		qty[d.Status] += d.Quantity
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(row.New(8).Add(
		col.New(6),
		col.New(6).Add(text.New(
			fmt.Sprintf("Pendentes: %d   |   Baixadas: %d", qty[entity.EPIStatusPending], qty[entity.EPIStatusWrittenOff]),
			props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 2, Right: 1},
		)),
	))
	return generate(m)
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(title, subtitle string, at time.Time) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(subtitle, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("Emitido em "+at.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
		),
	)
}

func responseHeaderRow(n int, r *entity.FormResponse) core.Row {
	who := nonEmpty(r.CollectedName, nonEmpty(r.IP, "anônimo"))
	return row.New(7).WithStyle(&props.Cell{BackgroundColor: colorStripe}).Add(
		col.New(8).Add(text.New(fmt.Sprintf("Resposta #%d  -  %s", n, who), props.Text{
			Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 1.5, Left: 1,
		})),
		col.New(4).Add(text.New(
			fmt.Sprintf("%s  (v%d)", r.CreatedAt.Format("02/01/2006 15:04"), r.FormVersion),
			props.Text{Size: 8, Align: align.Right, Top: 1.5, Right: 1, Color: colorGray},
		)),
	)
}

// paragraphRows texto libre con altura estimada por cantidad de líneas.
func paragraphRows(s string, color *props.Color) []core.Row {
	var rows []core.Row
	for _, chunk := range strings.Split(s, "\n") {
		lines := utf8.RuneCountInString(chunk)/charsPerLine + 1
		rows = append(rows, row.New(float64(lines)*4+1).Add(col.New(12).Add(
			text.New(chunk, props.Text{Size: 8, Left: 4, Right: 2, Color: color}),
		)))
	}
	return rows
}

func epiTableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: colorPrimary}).Add(
		h("Data", 2, align.Left),
		h("Colaborador", 3, align.Left),
		h("EPI", 3, align.Left),
		h("Lote", 1, align.Left),
		h("Qtd.", 1, align.Center),
		h("Status", 2, align.Left),
	)
}

func epiDetailRow(d *entity.EPIDelivery, striped bool) core.Row {
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 7.5, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	r := row.New(7).Add(
		cell(d.DeliveredAt.Format("02/01/2006"), 2, align.Left),
		cell(nonEmpty(d.EmployeeName, d.Contract), 3, align.Left),
		cell(nonEmpty(d.EPIDescription, d.EPI), 3, align.Left),
		cell(nonEmpty(d.Lot, "-"), 1, align.Left),
		cell(fmt.Sprint(d.Quantity), 1, align.Center),
		cell(statusLabel(d), 2, align.Left),
	)
	if striped {
		r.WithStyle(&props.Cell{BackgroundColor: colorStripe})
	}
	return r
}

func statusLabel(d *entity.EPIDelivery) string {
	if d.Status == entity.EPIStatusWrittenOff && d.ERPSequence != nil {
		return d.Status + " (" + *d.ERPSequence + ")"
	}
	return d.Status
}

// ── helpers ───────────────────────────────────────────────────────────────────

type fieldValue struct {
	fieldID string
	value   string
}

// groupValues junta los valores de un mismo campo (checkbox, arquivos) en el
// orden de los campos del formulário; campos desconocidos van al final.
func groupValues(fields []entity.FormField, values []entity.FormValue) []fieldValue {
	byField := map[string][]string{}
	var order []string
	for _, v := range values {
		s := v.Text
		if v.FileName != "" {
			s = v.FileName
		}
		if s == "" {
			continue
		}
		if _, ok := byField[v.FieldID]; !ok {
			order = append(order, v.FieldID)
		}
		byField[v.FieldID] = append(byField[v.FieldID], s)
	}

	out := make([]fieldValue, 0, len(byField))
	seen := map[string]bool{}
	for _, f := range fields {
		if vs, ok := byField[f.ID]; ok {
			out = append(out, fieldValue{fieldID: f.ID, value: strings.Join(vs, ", ")})
			seen[f.ID] = true
		}
	}
	for _, id := range order {
		if !seen[id] {
			out = append(out, fieldValue{fieldID: id, value: strings.Join(byField[id], ", ")})
		}
	}
	return out
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
