package ports

import (
	"context"
	"io"
)

// DocumentConverter convierte un archivo editable a PDF (LibreOffice headless).
// Devuelve la ruta absoluta del PDF generado en un directorio temporal que el llamador debe limpiar.
type DocumentConverter interface {
	ToPDF(ctx context.Context, srcPath string) (pdfPath string, cleanup func(), err error)
}

// FileStorage archivos bajo MEDIA_ROOT, direccionados por ruta relativa.
type FileStorage interface {
	Save(ctx context.Context, relPath string, r io.Reader) error
	Open(relPath string) (io.ReadCloser, error)
	ReadAll(relPath string) ([]byte, error)
	// Import mueve un archivo absoluto al storage.
	Import(absSrc, relDst string) error
	Copy(relSrc, relDst string) error
	Remove(relPath string) error
	Path(relPath string) string
}

// TextExtractor extrae texto plano de documentos (docx, xlsx, odt, ods, pdf, txt...).
type TextExtractor interface {
	Extract(name string, data []byte, maxChars int) (string, error)
}
