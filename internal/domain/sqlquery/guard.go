// Package sqlquery contiene las reglas puras del SQL hub: sólo lectura, límites y filtros.
package sqlquery

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jhoicas/portal-intranet/internal/domain"
)

const (
	// HardMaxRows techo absoluto de filas por página, sea cual sea el soft max configurado.
	HardMaxRows = 5000
	// MaxDistinctOptions filas devueltas por la consulta de opciones de una columna.
	MaxDistinctOptions = 200
)

var (
	lineComment  = regexp.MustCompile(`--[^\n]*`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	forbiddenRe  = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|grant|revoke|truncate|merge|exec|execute)\b|\buse\s`)
	identRe      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Clean quita comentarios, espacios y un único ';' final.
func Clean(sql string) string {
	s := blockComment.ReplaceAllString(sql, " ")
	s = lineComment.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	return strings.TrimSpace(s)
}

// EnsureSelect valida que la sentencia sea un único SELECT sin DML/DDL.
// Devuelve el SQL limpio listo para envolver.
func EnsureSelect(sql string) (string, error) {
	s := Clean(sql)
	if s == "" {
		return "", fmt.Errorf("%w: consulta vazia", domain.ErrNotSelect)
	}
	if !strings.HasPrefix(strings.ToLower(s), "select") {
		return "", fmt.Errorf("%w: a consulta deve iniciar com SELECT", domain.ErrNotSelect)
	}
	if strings.Contains(s, ";") {
		return "", fmt.Errorf("%w: remova ';' do SQL, apenas uma instrução é permitida", domain.ErrNotSelect)
	}
	if m := forbiddenRe.FindString(s); m != "" {
		return "", fmt.Errorf("%w: palavra proibida %q", domain.ErrNotSelect, strings.TrimSpace(strings.ToLower(m)))
	}
	return s, nil
}

// ClampLimit normaliza el límite pedido a [1, max(softMax, HardMaxRows)].
// Un valor vacío o no numérico cae en softMax.
func ClampLimit(raw string, softMax int) int {
	if softMax <= 0 {
		softMax = 1000
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		v = softMax
	}
	ceil := softMax
	if ceil < HardMaxRows {
		ceil = HardMaxRows
	}
	if v < 1 {
		v = 1
	}
	if v > ceil {
		v = ceil
	}
	return v
}

// Operadores de filtro.
const (
	OpEq         = "eq"
	OpNe         = "ne"
	OpGt         = "gt"
	OpGte        = "gte"
	OpLt         = "lt"
	OpLte        = "lte"
	OpContains   = "contains"
	OpStartsWith = "startswith"
	OpEndsWith   = "endswith"
	OpIsNull     = "isnull"
	OpNotNull    = "notnull"
)

var opAliases = map[string]string{
	"eq":          OpEq,
	"=":           OpEq,
	"==":          OpEq,
	"ne":          OpNe,
	"neq":         OpNe,
	"!=":          OpNe,
	"<>":          OpNe,
	"gt":          OpGt,
	">":           OpGt,
	"gte":         OpGte,
	">=":          OpGte,
	"lt":          OpLt,
	"<":           OpLt,
	"lte":         OpLte,
	"<=":          OpLte,
	"contains":    OpContains,
	"startswith":  OpStartsWith,
	"starts_with": OpStartsWith,
	"endswith":    OpEndsWith,
	"ends_with":   OpEndsWith,
	"isnull":      OpIsNull,
	"is_null":     OpIsNull,
	"notnull":     OpNotNull,
	"not_null":    OpNotNull,
}

// Filter condición sobre una columna del resultado base.
type Filter struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value string `json:"value"`
}

// NormalizeFilters descarta filtros con columna inválida u operador desconocido
// y traduce los alias al operador canónico. Op vacío equivale a eq.
func NormalizeFilters(in []Filter) []Filter {
	out := make([]Filter, 0, len(in))
	for _, f := range in {
		field := strings.TrimSpace(f.Field)
		if !identRe.MatchString(field) {
			continue
		}
		op := strings.ToLower(strings.TrimSpace(f.Op))
		if op == "" {
			op = OpEq
		}
		canon, ok := opAliases[op]
		if !ok {
			continue
		}
		out = append(out, Filter{Field: field, Op: canon, Value: f.Value})
	}
	return out
}

// ValidIdentifier indica si el nombre de columna es seguro para interpolar.
func ValidIdentifier(s string) bool {
	return identRe.MatchString(s)
}

// LikePattern devuelve el patrón LIKE para los operadores de texto.
func LikePattern(op, value string) string {
	switch op {
	case OpContains:
		return "%" + value + "%"
	case OpStartsWith:
		return value + "%"
	case OpEndsWith:
		return "%" + value
	}
	return value
}
