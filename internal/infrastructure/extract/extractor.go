// Package extract obtiene texto plano de documentos de oficina, PDF y texto.
package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain"
)

var _ ports.TextExtractor = (*Extractor)(nil)

// Límites de lectura de planillas y PDFs.
const (
	MaxSheetRows = 100
	MaxSheetCols = 50
	MaxPDFPages  = 200
)

// Extractor despacha por extensión.
type Extractor struct{}

// New construye el extractor.
func New() *Extractor { return &Extractor{} }

// Extract texto del archivo truncado a maxChars runas (0 = sin límite).
func (e *Extractor) Extract(name string, data []byte, maxChars int) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx":
		text, err = docx(data)
	case ".xlsx":
		text, err = xlsx(data)
	case ".odt":
		text, err = odt(data)
	case ".ods":
		text, err = ods(data)
	case ".pdf":
		text, err = pdfText(data)
	case ".txt", ".csv", ".md", ".rtf", ".py", ".js", ".html", ".css", ".json", ".xml":
		text = plain(data)
	default:
		return "", fmt.Errorf("%w: extração não suportada para %s", domain.ErrInvalidInput, name)
	}
	if err != nil {
		return "", fmt.Errorf("extrair %s: %w", name, err)
	}
	return truncate(strings.TrimSpace(text), maxChars), nil
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	r := []rune(s)
	return string(r[:maxChars])
}

// plain UTF-8 o, si no es válido, Windows-1252 (exportaciones de ERP).
func plain(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if utf8.Valid(data) {
		return string(data)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "")
	}
	return string(out)
}

func zipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(io.LimitReader(rc, 64<<20))
		}
	}
	return nil, fmt.Errorf("%s ausente", name)
}

func openZip(data []byte) (*zip.Reader, error) {
	return zip.NewReader(bytes.NewReader(data), int64(len(data)))
}

func xmlDoc(zr *zip.Reader, name string) (*etree.Document, error) {
	raw, err := zipEntry(zr, name)
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return doc, nil
}

// walk recorre el árbol en profundidad.
func walk(el *etree.Element, fn func(*etree.Element) bool) {
	if !fn(el) {
		return
	}
	for _, c := range el.ChildElements() {
		walk(c, fn)
	}
}

// ── OOXML ────────────────────────────────────────────────────────────────────

func docx(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", err
	}
	doc, err := xmlDoc(zr, "word/document.xml")
	if err != nil {
		return "", err
	}
	var out strings.Builder
	walk(doc.Root(), func(el *etree.Element) bool {
		if el.Tag != "p" {
			return true
		}
		var line strings.Builder
		walk(el, func(r *etree.Element) bool {
			switch r.Tag {
			case "t":
				line.WriteString(r.Text())
			case "tab":
				line.WriteByte('\t')
			case "br":
				line.WriteByte('\n')
			}
			return true
		})
		if s := strings.TrimSpace(line.String()); s != "" {
			out.WriteString(s)
			out.WriteByte('\n')
		}
		return false
	})
	return out.String(), nil
}

func xlsx(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", err
	}
	var shared []string
	if doc, err := xmlDoc(zr, "xl/sharedStrings.xml"); err == nil {
		for _, si := range doc.Root().ChildElements() {
			var s strings.Builder
			walk(si, func(el *etree.Element) bool {
				if el.Tag == "t" {
					s.WriteString(el.Text())
				}
				return true
			})
			shared = append(shared, s.String())
		}
	}

	names := map[string]string{}
	if wb, err := xmlDoc(zr, "xl/workbook.xml"); err == nil {
		i := 0
		walk(wb.Root(), func(el *etree.Element) bool {
			if el.Tag == "sheet" {
				i++
				names["xl/worksheets/sheet"+strconv.Itoa(i)+".xml"] = el.SelectAttrValue("name", "")
			}
			return true
		})
	}

	var sheets []string
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "xl/worksheets/sheet") && strings.HasSuffix(f.Name, ".xml") {
			sheets = append(sheets, f.Name)
		}
	}
	sort.Slice(sheets, func(i, j int) bool { return sheetNumber(sheets[i]) < sheetNumber(sheets[j]) })

	var out strings.Builder
	for _, name := range sheets {
		doc, err := xmlDoc(zr, name)
		if err != nil {
			continue
		}
		title := names[name]
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(name), ".xml")
		}
		fmt.Fprintf(&out, "--- Planilha: %s ---\n", title)
		rows := 0
		walk(doc.Root(), func(row *etree.Element) bool {
			if row.Tag != "row" {
				return true
			}
			if rows >= MaxSheetRows {
				return false
			}
			rows++
			var cells []string
			for _, c := range row.ChildElements() {
				if c.Tag != "c" {
					continue
				}
				if col := columnIndex(c.SelectAttrValue("r", "")); col >= MaxSheetCols {
					continue
				}
				cells = append(cells, cellValue(c, shared))
			}
			out.WriteString(strings.Join(cells, " | "))
			out.WriteByte('\n')
			return false
		})
	}
	return out.String(), nil
}

func sheetNumber(name string) int {
	n, _ := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "xl/worksheets/sheet"), ".xml"))
	return n
}

// columnIndex "C7" -> 2.
func columnIndex(ref string) int {
	n := 0
	for _, r := range ref {
		if r < 'A' || r > 'Z' {
			break
		}
		n = n*26 + int(r-'A'+1)
	}
	return n - 1
}

func cellValue(c *etree.Element, shared []string) string {
	switch c.SelectAttrValue("t", "") {
	case "s":
		if v := c.SelectElement("v"); v != nil {
			if i, err := strconv.Atoi(v.Text()); err == nil && i >= 0 && i < len(shared) {
				return shared[i]
			}
		}
		return ""
	case "inlineStr":
		var s strings.Builder
		walk(c, func(el *etree.Element) bool {
			if el.Tag == "t" {
				s.WriteString(el.Text())
			}
			return true
		})
		return s.String()
	}
	if v := c.SelectElement("v"); v != nil {
		return v.Text()
	}
	return ""
}

// ── OpenDocument ─────────────────────────────────────────────────────────────

// odfText texto de un nodo text:p/text:h incluyendo spans y espacios.
func odfText(el *etree.Element) string {
	var s strings.Builder
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			s.WriteString(t.Data)
		case *etree.Element:
			switch t.Tag {
			case "s":
				s.WriteByte(' ')
			case "tab":
				s.WriteByte('\t')
			case "line-break":
				s.WriteByte('\n')
			default:
				s.WriteString(odfText(t))
			}
		}
	}
	return s.String()
}

func odt(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", err
	}
	doc, err := xmlDoc(zr, "content.xml")
	if err != nil {
		return "", err
	}
	var out strings.Builder
	walk(doc.Root(), func(el *etree.Element) bool {
		if el.Tag == "p" || el.Tag == "h" {
			if s := strings.TrimSpace(odfText(el)); s != "" {
				out.WriteString(s)
				out.WriteByte('\n')
			}
			return false
		}
		return true
	})
	return out.String(), nil
}

func ods(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", err
	}
	doc, err := xmlDoc(zr, "content.xml")
	if err != nil {
		return "", err
	}
	var out strings.Builder
	walk(doc.Root(), func(table *etree.Element) bool {
		if table.Tag != "table" {
			return true
		}
		fmt.Fprintf(&out, "--- Planilha: %s ---\n", table.SelectAttrValue("table:name", table.SelectAttrValue("name", "")))
		rows := 0
		walk(table, func(row *etree.Element) bool {
			if row.Tag != "table-row" {
				return true
			}
			if rows >= MaxSheetRows {
				return false
			}
			rows++
			var cells []string
			for _, c := range row.ChildElements() {
				if c.Tag != "table-cell" || len(cells) >= MaxSheetCols {
					continue
				}
				var v strings.Builder
				for _, p := range c.ChildElements() {
					if p.Tag == "p" {
						v.WriteString(odfText(p))
					}
				}
				cells = append(cells, v.String())
			}
			// filas vacías repetidas al final de la hoja
			if strings.TrimSpace(strings.Join(cells, "")) == "" {
				return false
			}
			out.WriteString(strings.Join(cells, " | "))
			out.WriteByte('\n')
			return false
		})
		return false
	})
	return out.String(), nil
}

// ── PDF ──────────────────────────────────────────────────────────────────────

func pdfText(data []byte) (text string, err error) {
	// el parser entra en pánico con algunos PDFs corruptos
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("pdf inválido: %v", rec)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var out strings.Builder
	pages := r.NumPage()
	if pages > MaxPDFPages {
		pages = MaxPDFPages
	}
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		out.WriteString(text)
		out.WriteByte('\n')
	}
	return out.String(), nil
}
