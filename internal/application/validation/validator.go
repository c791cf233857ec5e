// Package validation valida los DTOs de entrada con go-playground/validator v10.
// Instancia única (cachea la información de los structs) y mensajes en portugués.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError error de un campo del request.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Errors colección de errores de validación.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// Get devuelve el validador compartido.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// nombres de campo según el tag json
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("permission", func(fl validator.FieldLevel) bool {
			return entity.IsKnownPermission(fl.Field().String())
		})
		_ = validate.RegisterValidation("fieldtype", func(fl validator.FieldLevel) bool {
			return entity.IsValidFieldType(fl.Field().String())
		})
	})
	return validate
}

// Struct valida s; devuelve nil o Errors.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{{Field: "unknown", Tag: "unknown", Message: err.Error()}}
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag(), Message: translate(fe)})
	}
	return out
}

var simpleMessages = map[string]string{
	"required":   "%s é obrigatório",
	"email":      "%s deve ser um e-mail válido",
	"uuid":       "%s deve ser um UUID",
	"permission": "%s não é uma permissão conhecida",
	"fieldtype":  "%s não é um tipo de campo válido",
	"url":        "%s deve ser uma URL",
}

var paramMessages = map[string]string{
	"oneof": "%s deve ser um de: %s",
	"gte":   "%s deve ser maior ou igual a %s",
	"lte":   "%s deve ser menor ou igual a %s",
	"gt":    "%s deve ser maior que %s",
	"lt":    "%s deve ser menor que %s",
}

func translate(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()
	if tpl, ok := simpleMessages[tag]; ok {
		return fmt.Sprintf(tpl, field)
	}
	if tpl, ok := paramMessages[tag]; ok {
		return fmt.Sprintf(tpl, field, param)
	}
	isString := fe.Kind() == reflect.String
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s deve ter ao menos %s caracteres", field, param)
		}
		return fmt.Sprintf("%s deve ser no mínimo %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s deve ter no máximo %s caracteres", field, param)
		}
		return fmt.Sprintf("%s deve ser no máximo %s", field, param)
	}
	return fmt.Sprintf("%s falhou na validação %s", field, tag)
}
