// Package docs especificación OpenAPI de la API, servida en /docs y registrada en swag.
package docs

import (
	_ "embed"

	"github.com/swaggo/swag"
)

//go:embed swagger.json
var swaggerJSON []byte

type spec struct{}

func (spec) ReadDoc() string { return string(swaggerJSON) }

// JSON contenido de swagger.json.
func JSON() []byte { return swaggerJSON }

func init() {
	swag.Register(swag.Name, spec{})
}
