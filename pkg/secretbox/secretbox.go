// Package secretbox sella segredos curtos (senhas de conexões externas) para guardar no banco.
//
// Formato: "fe:" + base64url(nonce || caixa). Valores sem o prefixo são tratados como texto
// plano legado e devolvidos sem alteração por Open.
package secretbox

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

// Prefix marca valores sellados.
const Prefix = "fe:"

const nonceSize = 24

var (
	ErrInvalidKey    = errors.New("secretbox: clave debe tener 32 bytes (hex o base64)")
	ErrDecryptFailed = errors.New("secretbox: no fue posible abrir el valor")
)

// Box sella y abre valores con una clave simétrica fija.
type Box struct {
	key [32]byte
}

// New interpreta la clave como hex (64 chars) o base64 estándar/url.
func New(key string) (*Box, error) {
	raw, err := decodeKey(strings.TrimSpace(key))
	if err != nil {
		return nil, err
	}
	b := &Box{}
	copy(b.key[:], raw)
	return b, nil
}

func decodeKey(key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	if b, err := hex.DecodeString(key); err == nil && len(b) == 32 {
		return b, nil
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(key); err == nil && len(b) == 32 {
			return b, nil
		}
	}
	return nil, ErrInvalidKey
}

// IsSealed indica si el valor ya está sellado.
func IsSealed(v string) bool {
	return strings.HasPrefix(v, Prefix)
}

// Seal sella el texto plano. Valores ya sellados o vacíos se devuelven igual.
func (b *Box) Seal(plain string) (string, error) {
	if plain == "" || IsSealed(plain) {
		return plain, nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("secretbox: nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], []byte(plain), &nonce, &b.key)
	return Prefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open abre un valor sellado; texto sin prefijo se considera legado y se devuelve tal cual.
func (b *Box) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrDecryptFailed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrDecryptFailed
	}
	return string(plain), nil
}
