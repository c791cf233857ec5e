package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/usecase"
)

// SyncHandler sincronização manual com a AltForce e estado das integrações.
type SyncHandler struct {
	uc           *usecase.AltForceSyncUseCase
	integrations *usecase.IntegrationService
}

// NewSyncHandler construye el handler.
func NewSyncHandler(uc *usecase.AltForceSyncUseCase, integrations *usecase.IntegrationService) *SyncHandler {
	return &SyncHandler{uc: uc, integrations: integrations}
}

// SyncResult resultados por recurso; Error presente quando houve janelas ou registros com falha
// ou a execução parou no meio (HTTP 207).
type SyncResult struct {
	Results []dto.SyncResponse `json:"results"`
	Error   string             `json:"error,omitempty"`
}

// Run godoc
// @Summary      Executar sincronização AltForce
// @Description  resource: orders, budgets, leads, customers ou all. backfill percorre janelas desde days atrás.
// @Tags         altforce
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SyncRequest  true  "Recurso e período"
// @Success      200   {object}  SyncResult
// @Failure      207   {object}  SyncResult
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/altforce/sync [post]
func (h *SyncHandler) Run(c *fiber.Ctx) error {
	if h.integrations != nil && !h.integrations.IsEnabled(usecase.IntegrationAltForce) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "NOT_CONFIGURED", Message: "integração AltForce não configurada"})
	}
	var in dto.SyncRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Run(c.UserContext(), in)
	if err != nil && len(out) == 0 {
		return writeError(c, err)
	}
	res := SyncResult{Results: out}
	if err != nil {
		// parcial: lo ya procesado quedó guardado
		res.Error = err.Error()
		return c.Status(fiber.StatusMultiStatus).JSON(res)
	}
	return c.JSON(res)
}

// Integrations godoc
// @Summary      Integrações externas configuradas
// @Tags         sistema
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  usecase.IntegrationStatus
// @Router       /api/integrations [get]
func (h *SyncHandler) Integrations(c *fiber.Ctx) error {
	return c.JSON(h.integrations.Status())
}
