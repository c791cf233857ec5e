// Package storage archivos del portal en disco bajo MEDIA_ROOT.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain"
)

var _ ports.FileStorage = (*Local)(nil)

// Local FileStorage sobre el sistema de archivos.
type Local struct {
	root string
}

// NewLocal crea el root si no existe.
func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("media root: %w", err)
	}
	return &Local{root: abs}, nil
}

// resolve ruta absoluta de rel; rutas que escapan del root son ErrInvalidInput.
func (s *Local) resolve(rel string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(rel))
	abs := filepath.Join(s.root, clean)
	if abs == s.root || !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: caminho inválido %q", domain.ErrInvalidInput, rel)
	}
	return abs, nil
}

// Path ruta absoluta (sin validar existencia).
func (s *Local) Path(rel string) string {
	abs, err := s.resolve(rel)
	if err != nil {
		return ""
	}
	return abs
}

// Save escribe r en rel vía archivo temporal + rename.
func (s *Local) Save(ctx context.Context, rel string, r io.Reader) error {
	dst, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, readerWithContext(ctx, r)); err != nil {
		tmp.Close()
		return fmt.Errorf("gravar %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

// Open abre para lectura; inexistente -> ErrNotFound.
func (s *Local) Open(rel string) (io.ReadCloser, error) {
	p, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", rel, domain.ErrNotFound)
	}
	return f, err
}

// ReadAll contenido completo.
func (s *Local) ReadAll(rel string) ([]byte, error) {
	f, err := s.Open(rel)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Import mueve un archivo absoluto (p. ej. el PDF de LibreOffice) al storage.
func (s *Local) Import(absSrc, relDst string) error {
	dst, err := s.resolve(relDst)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(absSrc, dst); err == nil {
		return nil
	}
	// otro dispositivo (tmpfs): copiar y borrar
	if err := copyFile(absSrc, dst); err != nil {
		return err
	}
	return os.Remove(absSrc)
}

// Copy duplica rel dentro del storage.
func (s *Local) Copy(relSrc, relDst string) error {
	src, err := s.resolve(relSrc)
	if err != nil {
		return err
	}
	dst, err := s.resolve(relDst)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", relSrc, domain.ErrNotFound)
		}
		return err
	}
	return nil
}

// Remove borra; inexistente no es error.
func (s *Local) Remove(rel string) error {
	p, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
