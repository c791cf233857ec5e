// Package aicost calcula el costo estimado de las llamadas al modelo generativo (servicio de dominio).
package aicost

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

// Price precios en USD por millón de tokens y por imagen de entrada.
type Price struct {
	InputPerMillion  decimal.Decimal
	OutputPerMillion decimal.Decimal
	PerImage         decimal.Decimal
}

func p(in, out, img string) Price {
	return Price{
		InputPerMillion:  decimal.RequireFromString(in),
		OutputPerMillion: decimal.RequireFromString(out),
		PerImage:         decimal.RequireFromString(img),
	}
}

// Prices tabla de precios Gemini (USD, abr/2025).
var Prices = map[string]Price{
	"models/gemini-1.5-pro-latest":          p("3.50", "10.50", "0.0025"),
	"models/gemini-1.5-flash-latest":        p("0.35", "1.05", "0.00025"),
	"models/gemini-2.5-pro-preview-03-25":   p("10.00", "30.00", "0.0030"),
	"models/gemini-2.5-flash-preview-04-17": p("0.15", "3.50", "0.00025"),
	"models/gemini-2.5-flash":               p("0.15", "3.50", "0.00025"),
	"models/gemini-2.0-flash-latest":        p("0.10", "0.40", "0.00025"),
	"models/gemini-2.0-flash-lite-latest":   p("0.075", "0.30", "0"),
	"models/gemini-2.0-flash-lite":          p("0.075", "0.30", "0"),
	"models/gemini-1.0-pro":                 p("0.50", "1.50", "0.0025"),
}

// DefaultModel modelo usado cuando no hay precio ni selección válida.
const (
	DefaultModelKey = "gemini-1.5-flash"
	DefaultModel    = "models/gemini-1.5-flash-latest"
)

// ModelMap claves expuestas en la UI -> nombre de modelo de la API.
var ModelMap = map[string]string{
	"gemini-1.5-pro":        "models/gemini-1.5-pro-latest",
	"gemini-1.5-flash":      "models/gemini-1.5-flash-latest",
	"gemini-2.0-flash":      "models/gemini-2.0-flash",
	"gemini-2.0-flash-lite": "models/gemini-2.0-flash-lite",
	"gemini-2.5-pro":        "models/gemini-2.5-pro-preview-03-25",
	"gemini-2.5-flash":      "models/gemini-2.5-flash-preview-04-17",
}

// modelPermissions modelos caros restringidos por permiso.
var modelPermissions = map[string]string{
	"gemini-2.5-pro": entity.PermModel25Pro,
	"gemini-1.5-pro": entity.PermModel15Pro,
}

// RequiredPermission permiso necesario para usar la clave de modelo ("" = libre).
func RequiredPermission(key string) string {
	return modelPermissions[key]
}

// ResolveModel traduce la clave a nombre de API; claves desconocidas caen al default.
func ResolveModel(key string) (name string, fallback bool) {
	if name, ok := ModelMap[key]; ok {
		return name, false
	}
	return DefaultModel, true
}

// altName alterna el sufijo -latest y el prefijo models/ para encontrar el precio.
func altNames(name string) []string {
	base := name
	if !strings.HasPrefix(base, "models/") {
		base = "models/" + base
	}
	out := []string{base}
	if strings.HasSuffix(base, "-latest") {
		out = append(out, strings.TrimSuffix(base, "-latest"))
	} else {
		out = append(out, base+"-latest")
	}
	return out
}

// Lookup busca el precio del modelo. ok=false indica que se usó el default.
func Lookup(model string) (Price, bool) {
	if pr, found := Prices[model]; found {
		return pr, true
	}
	for _, alt := range altNames(model) {
		if pr, found := Prices[alt]; found {
			return pr, true
		}
	}
	pr := Prices[DefaultModel]
	// modelos sin precio de imagen no cobran imágenes
	pr.PerImage = decimal.Zero
	return pr, false
}

var million = decimal.NewFromInt(1_000_000)

// Calculate costo USD = in*precioIn/1M + out*precioOut/1M + imágenes*precioImg.
func Calculate(model string, inputTokens, outputTokens, images int) decimal.Decimal {
	pr, _ := Lookup(model)
	in := decimal.NewFromInt(int64(inputTokens)).Mul(pr.InputPerMillion.Div(million))
	out := decimal.NewFromInt(int64(outputTokens)).Mul(pr.OutputPerMillion.Div(million))
	img := decimal.NewFromInt(int64(images)).Mul(pr.PerImage)
	return in.Add(out).Add(img)
}

// ToBRL convierte a reales con la tasa configurada, redondeando a 6 decimales.
func ToBRL(usd, rate decimal.Decimal) decimal.Decimal {
	if rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return usd.Mul(rate).Round(6)
}
