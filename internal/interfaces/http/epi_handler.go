package http

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/usecase"
)

// EPIHandler entregas de EPI: listagem, baixa no ERP e sincronização com o RH.
type EPIHandler struct {
	uc *usecase.EPIUseCase
}

// NewEPIHandler construye el handler.
func NewEPIHandler(uc *usecase.EPIUseCase) *EPIHandler {
	return &EPIHandler{uc: uc}
}

// List godoc
// @Summary      Listar entregas de EPI
// @Tags         rh
// @Security     Bearer
// @Produce      json
// @Param        status    query  string  false  "Pendente ou Baixado"
// @Param        unit      query  string  false  "Unidade"
// @Param        employee  query  string  false  "Colaborador contém"
// @Param        from      query  string  false  "Entregue a partir de (YYYY-MM-DD)"
// @Param        to        query  string  false  "Entregue até (YYYY-MM-DD)"
// @Param        limit     query  int     false  "Limite"  default(20)
// @Param        offset    query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.EPIListResponse
// @Router       /api/epi/deliveries [get]
func (h *EPIHandler) List(c *fiber.Ctx) error {
	var in dto.EPIFilterRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// WriteOff godoc
// @Summary      Baixar entregas pendentes
// @Tags         rh
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.EPIWriteOffRequest  true  "IDs e sequencial do ERP"
// @Success      200   {object}  dto.CountResponse
// @Router       /api/epi/deliveries/write-off [post]
func (h *EPIHandler) WriteOff(c *fiber.Ctx) error {
	var in dto.EPIWriteOffRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	n, err := h.uc.WriteOff(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.CountResponse{Count: n})
}

// Revert godoc
// @Summary      Reverter baixa
// @Tags         rh
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.EPIRevertRequest  true  "IDs"
// @Success      200   {object}  dto.CountResponse
// @Router       /api/epi/deliveries/revert [post]
func (h *EPIHandler) Revert(c *fiber.Ctx) error {
	var in dto.EPIRevertRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	n, err := h.uc.Revert(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.CountResponse{Count: n})
}

// Import godoc
// @Summary      Importar baixas do ERP (CSV Windows-1252)
// @Tags         rh
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "CSV exportado do ERP"
// @Success      200  {object}  dto.EPIImportResponse
// @Router       /api/epi/deliveries/import [post]
func (h *EPIHandler) Import(c *fiber.Ctx) error {
	up, err := formFile(c, "file")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ImportWriteOffs(c.UserContext(), bytes.NewReader(up.Data))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// PendingReport godoc
// @Summary      Relatório PDF das entregas pendentes
// @Tags         rh
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}  binary
// @Router       /api/epi/deliveries/report [get]
func (h *EPIHandler) PendingReport(c *fiber.Ctx) error {
	var in dto.EPIFilterRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	data, err := h.uc.PendingReport(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return sendAttachment(c, data, "application/pdf", "entregas_epi_pendentes.pdf")
}

// Sync godoc
// @Summary      Sincronizar entregas com a API do RH
// @Tags         rh
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  syncwindow.Summary
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/epi/sync [post]
func (h *EPIHandler) Sync(c *fiber.Ctx) error {
	sum, err := h.uc.Sync(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sum)
}
