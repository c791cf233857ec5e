// Package office convierte documentos editables a PDF con LibreOffice headless.
package office

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/pkg/config"
	"github.com/jhoicas/portal-intranet/pkg/logger"
)

var _ ports.DocumentConverter = (*Converter)(nil)

const systemPath = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"

// Converter ejecuta soffice con un perfil de usuario temporal por conversión.
type Converter struct {
	bin     string
	timeout time.Duration
	log     *logger.Logger
	run     func(ctx context.Context, bin string, args, env []string) (stdout, stderr []byte, exitCode int, err error)
}

// NewConverter construye el conversor.
func NewConverter(cfg config.OfficeConfig, log *logger.Logger) *Converter {
	if log == nil {
		log = logger.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	bin := cfg.SofficePath
	if bin == "" {
		bin = "soffice"
	}
	return &Converter{bin: bin, timeout: timeout, log: log.Named("office"), run: runCommand}
}

func runCommand(ctx context.Context, bin string, args, env []string) ([]byte, []byte, int, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = env
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	err := cmd.Run()
	code := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
		err = nil
	}
	return stdout.Bytes(), stderr.Bytes(), code, err
}

// ToPDF convierte srcPath; el PDF queda en un directorio temporal que cleanup elimina.
func (c *Converter) ToPDF(ctx context.Context, srcPath string) (string, func(), error) {
	outDir, err := os.MkdirTemp("", "soffice-out-")
	if err != nil {
		return "", nil, fmt.Errorf("soffice: outdir: %w", err)
	}
	profile, err := os.MkdirTemp("", "soffice-profile-")
	if err != nil {
		os.RemoveAll(outDir)
		return "", nil, fmt.Errorf("soffice: profile: %w", err)
	}
	cleanup := func() {
		os.RemoveAll(outDir)
		os.RemoveAll(profile)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{
		"--headless", "--norestore",
		"-env:UserInstallation=file://" + filepath.ToSlash(profile),
		"--convert-to", "pdf:writer_pdf_Export",
		"--outdir", outDir,
		srcPath,
	}
	stdout, stderr, code, err := c.run(ctx, c.bin, args, commandEnv())
	if err != nil {
		cleanup()
		if ctx.Err() != nil {
			return "", nil, fmt.Errorf("soffice: timeout após %s: %w", c.timeout, ctx.Err())
		}
		return "", nil, fmt.Errorf("soffice: %w", err)
	}
	if code == 127 {
		cleanup()
		return "", nil, fmt.Errorf("soffice: command not found (%s)", c.bin)
	}
	if code != 0 {
		cleanup()
		c.log.Warn().Int("rc", code).Str("stderr", string(stderr)).Str("src", srcPath).Msg("conversión fallida")
		return "", nil, fmt.Errorf("soffice: rc=%d: %s", code, strings.TrimSpace(string(stderr)))
	}

	pdf, err := findPDF(outDir, srcPath)
	if err != nil {
		cleanup()
		c.log.Warn().Str("stdout", string(stdout)).Str("stderr", string(stderr)).Msg("soffice no generó PDF")
		return "", nil, err
	}
	return pdf, cleanup, nil
}

// findPDF busca <basename>.pdf; si no existe acepta el único *.pdf del directorio.
func findPDF(outDir, srcPath string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	expected := filepath.Join(outDir, base+".pdf")
	if _, err := os.Stat(expected); err == nil {
		return expected, nil
	}
	matches, _ := filepath.Glob(filepath.Join(outDir, "*.pdf"))
	if len(matches) == 1 {
		return matches[0], nil
	}
	return "", fmt.Errorf("soffice: PDF não encontrado em %s", outDir)
}

// commandEnv PATH con los directorios del sistema primero y HOME por defecto en /tmp.
func commandEnv() []string {
	env := []string{}
	home := ""
	for _, kv := range os.Environ() {
		switch {
		case strings.HasPrefix(kv, "PATH="):
			continue
		case strings.HasPrefix(kv, "HOME="):
			home = strings.TrimPrefix(kv, "HOME=")
			continue
		}
		env = append(env, kv)
	}
	path := systemPath
	if p := os.Getenv("PATH"); p != "" {
		path += ":" + p
	}
	if home == "" {
		home = "/tmp"
	}
	return append(env, "PATH="+path, "HOME="+home)
}
