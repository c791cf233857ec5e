package http

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/domain"
)

// readUpload lee un archivo del multipart completo en memoria.
func readUpload(fh *multipart.FileHeader) (dto.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return dto.Upload{}, fmt.Errorf("abrir upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return dto.Upload{}, fmt.Errorf("ler upload %s: %w", fh.Filename, err)
	}
	return dto.Upload{FileName: fh.Filename, Data: data}, nil
}

// formFile archivo obligatorio del campo indicado.
func formFile(c *fiber.Ctx, field string) (dto.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return dto.Upload{}, fmt.Errorf("%w: arquivo %q obrigatório", domain.ErrInvalidInput, field)
	}
	return readUpload(fh)
}

// optionalFormFile archivo opcional; nil si no vino.
func optionalFormFile(c *fiber.Ctx, field string) (*dto.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	up, err := readUpload(fh)
	if err != nil {
		return nil, err
	}
	return &up, nil
}

// formFiles todos los archivos de un campo multipart.
func formFiles(c *fiber.Ctx, field string) ([]dto.Upload, error) {
	mf, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	var out []dto.Upload
	for _, fh := range mf.File[field] {
		up, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		out = append(out, up)
	}
	return out, nil
}

// sendAttachment responde un binario como descarga.
func sendAttachment(c *fiber.Ctx, data []byte, contentType, filename string) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}
