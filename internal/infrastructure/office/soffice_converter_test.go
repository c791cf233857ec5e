package office

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/pkg/config"
)

func outdirArg(args []string) string {
	for i, a := range args {
		if a == "--outdir" {
			return args[i+1]
		}
	}
	return ""
}

func TestToPDF_GeraNoDiretorioTemporario(t *testing.T) {
	c := NewConverter(config.OfficeConfig{SofficePath: "soffice"}, nil)
	var gotEnv []string
	c.run = func(_ context.Context, bin string, args, env []string) ([]byte, []byte, int, error) {
		gotEnv = env
		assert.Equal(t, "soffice", bin)
		assert.Contains(t, args, "pdf:writer_pdf_Export")
		return nil, nil, 0, os.WriteFile(filepath.Join(outdirArg(args), "manual.pdf"), []byte("%PDF"), 0o644)
	}

	pdf, cleanup, err := c.ToPDF(context.Background(), "/media/documentos/editaveis/manual.docx")
	require.NoError(t, err)
	assert.Equal(t, "manual.pdf", filepath.Base(pdf))
	var path string
	for _, kv := range gotEnv {
		if strings.HasPrefix(kv, "PATH=") {
			path = kv
		}
	}
	assert.True(t, strings.HasPrefix(path, "PATH=/usr/local/sbin:"))

	cleanup()
	_, err = os.Stat(pdf)
	assert.True(t, os.IsNotExist(err))
}

func TestToPDF_AceitaUnicoPDF(t *testing.T) {
	c := NewConverter(config.OfficeConfig{}, nil)
	c.run = func(_ context.Context, _ string, args, _ []string) ([]byte, []byte, int, error) {
		return nil, nil, 0, os.WriteFile(filepath.Join(outdirArg(args), "outro-nome.pdf"), []byte("%PDF"), 0o644)
	}
	pdf, cleanup, err := c.ToPDF(context.Background(), "/tmp/a.odt")
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, "outro-nome.pdf", filepath.Base(pdf))
}

func TestToPDF_ComandoAusente(t *testing.T) {
	c := NewConverter(config.OfficeConfig{}, nil)
	c.run = func(context.Context, string, []string, []string) ([]byte, []byte, int, error) {
		return nil, nil, 127, nil
	}
	_, _, err := c.ToPDF(context.Background(), "/tmp/a.docx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command not found")
}

func TestToPDF_SemSaida(t *testing.T) {
	c := NewConverter(config.OfficeConfig{}, nil)
	c.run = func(context.Context, string, []string, []string) ([]byte, []byte, int, error) {
		return nil, nil, 0, nil
	}
	_, _, err := c.ToPDF(context.Background(), "/tmp/a.docx")
	assert.Error(t, err)
}
