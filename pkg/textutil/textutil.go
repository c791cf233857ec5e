// Package textutil normaliza textos livres vindos de APIs externas e gera slugs para nomes de arquivo.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	spaceRe    = regexp.MustCompile(`\s+`)
	slugDropRe = regexp.MustCompile(`[^\w\s-]`)
	slugDashRe = regexp.MustCompile(`[-\s]+`)
)

// StripAccents remove diacríticos ("Açúcar" -> "Acucar").
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize produz a chave de comparação: sem acentos, minúsculas, espaços colapsados.
func Normalize(s string) string {
	s = StripAccents(strings.TrimSpace(s))
	s = strings.ToLower(s)
	return spaceRe.ReplaceAllString(s, " ")
}

// Slugify converte em slug ASCII: "Procedimento Técnico 01" -> "procedimento-tecnico-01".
func Slugify(s string) string {
	s = strings.ToLower(StripAccents(s))
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	s = slugDropRe.ReplaceAllString(b.String(), "")
	s = slugDashRe.ReplaceAllString(strings.TrimSpace(s), "-")
	return strings.Trim(s, "-_")
}
