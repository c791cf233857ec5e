// Package form reúne las reglas de negocio de formularios dinámicos: disponibilidad,
// público objetivo de la home y validación de envíos.
package form

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

// FileCategories extensiones aceptadas por categoría de upload.
var FileCategories = map[string][]string{
	"documento":    {"doc", "docx", "odt", "rtf", "txt"},
	"apresentação": {"ppt", "pptx", "odp"},
	"planilha":     {"xls", "xlsx", "ods", "csv"},
	"desenho":      {"dwg", "dxf", "svg"},
	"pdf":          {"pdf"},
	"imagem":       {"png", "jpg", "jpeg", "gif", "webp"},
	"vídeo":        {"mp4", "mov", "mkv", "avi"},
	"áudio":        {"mp3", "wav", "ogg", "aac"},
}

const (
	defaultMaxFiles = 1
	defaultMaxMB    = 10
)

// Unavailability motivos por los que el formulario no acepta respuestas (vacío = disponible).
func Unavailability(f *entity.Form, responseCount int, now time.Time) []string {
	var out []string
	if !f.AcceptingResponses {
		out = append(out, "Este formulário não está aceitando respostas no momento.")
	}
	if f.OpensAt != nil && f.OpensAt.After(now) {
		out = append(out, "Este formulário ainda não está disponível.")
	}
	if f.ClosesAt != nil && f.ClosesAt.Before(now) {
		out = append(out, "Este formulário foi encerrado.")
	}
	if f.ResponseLimit > 0 && responseCount >= f.ResponseLimit {
		out = append(out, "O limite de respostas foi atingido.")
	}
	return out
}

// Bucket posición determinística 0..99 del usuario para el formulario.
func Bucket(formID, userID string) int {
	sum := sha256.Sum256([]byte(formID + ":" + userID))
	n := new(big.Int).SetBytes(sum[:])
	return int(new(big.Int).Mod(n, big.NewInt(100)).Int64())
}

// InTarget aplica el público objetivo: todos, 50% determinístico o lista manual.
func InTarget(f *entity.Form, userID string) bool {
	if userID == "" {
		return false
	}
	switch f.Target {
	case entity.TargetManual:
		for _, u := range f.TargetUsers {
			if u == userID {
				return true
			}
		}
		return false
	case entity.TargetHalf:
		return Bucket(f.ID, userID) < 50
	default:
		return true
	}
}

// ShouldShowOnHome decide si el formulario aparece en la home del usuario.
// Nunca respondido: aparece siempre. Respondido: sólo si RepeatEveryMinutes ya transcurrió.
func ShouldShowOnHome(f *entity.Form, userID string, state *entity.FormUserState, now time.Time) bool {
	if !f.ShowOnHome || !InTarget(f, userID) {
		return false
	}
	if len(Unavailability(f, f.ResponseCount, now)) > 0 {
		return false
	}
	if state == nil {
		return true
	}
	if state.Dismissed {
		return false
	}
	if state.LastAnsweredAt == nil {
		return true
	}
	if f.RepeatEveryMinutes <= 0 {
		return false
	}
	next := state.LastAnsweredAt.Add(time.Duration(f.RepeatEveryMinutes) * time.Minute)
	return !next.After(now)
}

// AllowedExtensions devuelve si los tipos son libres y, si no, el conjunto permitido.
func AllowedExtensions(v entity.FileValidation) (bool, map[string]bool) {
	free := v.FreeTypes == nil || *v.FreeTypes
	if free {
		return true, nil
	}
	exts := map[string]bool{}
	for _, cat := range v.Categories {
		for _, e := range FileCategories[cat] {
			exts[e] = true
		}
	}
	return false, exts
}

// Upload metadatos de un archivo recibido.
type Upload struct {
	FileName string
	Size     int64
}

// Submission valores enviados, indexados por ID de campo.
type Submission struct {
	Values        map[string][]string
	Files         map[string][]Upload
	Name          string
	Authenticated bool
}

func (s Submission) first(fieldID string) string {
	if v := s.Values[fieldID]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

// ValidationErrors errores de envío, globales y por campo.
type ValidationErrors struct {
	Global []string            `json:"errors"`
	Fields map[string][]string `json:"fields,omitempty"`
	Name   []string            `json:"name,omitempty"`
}

func (e *ValidationErrors) Error() string {
	return fmt.Sprintf("formulário inválido: %s", strings.Join(e.Global, "; "))
}

func (e *ValidationErrors) add(field *entity.FormField, msg string) {
	e.Global = append(e.Global, msg)
	if field != nil {
		if e.Fields == nil {
			e.Fields = map[string][]string{}
		}
		e.Fields[field.ID] = append(e.Fields[field.ID], msg)
	}
}

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?$`)
)

// ValidateSubmission valida un envío contra el esquema actual. nil = válido.
func ValidateSubmission(f *entity.Form, responseCount int, sub Submission, now time.Time) *ValidationErrors {
	errs := &ValidationErrors{}

	if f.CollectName && !sub.Authenticated && strings.TrimSpace(sub.Name) == "" {
		msg := "Informe seu nome para enviar este formulário."
		errs.Name = append(errs.Name, msg)
		errs.Global = append(errs.Global, msg)
	}
	for _, msg := range Unavailability(f, responseCount, now) {
		errs.add(nil, msg)
	}

	active := 0
	answered := false
	for i := range f.Fields {
		field := &f.Fields[i]
		if !field.Active {
			continue
		}
		active++
		switch field.Type {
		case entity.FieldFile:
			files := sub.Files[field.ID]
			if len(files) > 0 {
				answered = true
			}
			validateFiles(errs, field, files)
		case entity.FieldCheckbox:
			var marked []string
			for _, v := range sub.Values[field.ID] {
				if strings.TrimSpace(v) != "" {
					marked = append(marked, v)
				}
			}
			if len(marked) > 0 {
				answered = true
			}
			if field.Required && len(marked) == 0 {
				errs.add(field, fmt.Sprintf("O campo “%s” é obrigatório.", field.Label))
			}
			for _, m := range marked {
				if len(field.Options) > 0 && !containsFold(field.Options, m) {
					errs.add(field, fmt.Sprintf("Opção inválida em “%s”.", field.Label))
					break
				}
			}
		default:
			val := sub.first(field.ID)
			if val != "" {
				answered = true
				if msg := validateValue(field, val); msg != "" {
					errs.add(field, msg)
				}
			}
			if field.Required && val == "" {
				errs.add(field, fmt.Sprintf("O campo “%s” é obrigatório.", field.Label))
			}
		}
	}

	if active > 0 && !answered {
		errs.add(nil, "Preencha pelo menos uma pergunta antes de enviar.")
	}
	if len(errs.Global) == 0 {
		return nil
	}
	return errs
}

func validateFiles(errs *ValidationErrors, field *entity.FormField, files []Upload) {
	cfg := field.Validation
	maxFiles := cfg.MaxFiles
	if maxFiles <= 0 {
		maxFiles = defaultMaxFiles
	}
	maxMB := cfg.MaxMB
	if maxMB <= 0 {
		maxMB = defaultMaxMB
	}
	free, allowed := AllowedExtensions(cfg)

	if field.Required && len(files) == 0 {
		errs.add(field, fmt.Sprintf("O campo “%s” é obrigatório.", field.Label))
	}
	if len(files) > maxFiles {
		errs.add(field, fmt.Sprintf("Máximo %d arquivo(s) em “%s”.", maxFiles, field.Label))
	}
	for _, up := range files {
		if up.Size > int64(maxMB)*1024*1024 {
			errs.add(field, fmt.Sprintf("“%s” excede %d MB (campo %s).", up.FileName, maxMB, field.Label))
		}
		if !free {
			ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(up.FileName)), ".")
			if ext == "" || !allowed[ext] {
				shown := ext
				if shown == "" {
					shown = "?"
				}
				errs.add(field, fmt.Sprintf("Extensão “.%s” não é permitida em “%s”.", shown, field.Label))
			}
		}
	}
}

func validateValue(field *entity.FormField, val string) string {
	switch field.Type {
	case entity.FieldScale:
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 || n > 10 {
			return fmt.Sprintf("“%s” deve ser um número de 1 a 10.", field.Label)
		}
	case entity.FieldDate:
		if !dateRe.MatchString(val) {
			return fmt.Sprintf("Data inválida em “%s”.", field.Label)
		}
		if _, err := time.Parse("2006-01-02", val); err != nil {
			return fmt.Sprintf("Data inválida em “%s”.", field.Label)
		}
	case entity.FieldTime:
		if !timeRe.MatchString(val) {
			return fmt.Sprintf("Hora inválida em “%s”.", field.Label)
		}
	case entity.FieldChoice, entity.FieldDropdown:
		if len(field.Options) > 0 && !containsFold(field.Options, val) {
			return fmt.Sprintf("Opção inválida em “%s”.", field.Label)
		}
	}
	return ""
}

func containsFold(list []string, v string) bool {
	for _, o := range list {
		if strings.EqualFold(strings.TrimSpace(o), strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}

// StoredValue texto a persistir para el campo (checkbox une con ", ").
func StoredValue(field *entity.FormField, sub Submission) string {
	if field.Type == entity.FieldCheckbox {
		var marked []string
		for _, v := range sub.Values[field.ID] {
			if strings.TrimSpace(v) != "" {
				marked = append(marked, v)
			}
		}
		return strings.Join(marked, ", ")
	}
	if v := sub.Values[field.ID]; len(v) > 0 {
		return v[0]
	}
	return ""
}
