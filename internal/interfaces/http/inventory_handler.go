package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Obras-api/internal/application/dto"
	"github.com/jhoicas/Obras-api/internal/application/ledger"
	"github.com/jhoicas/Obras-api/internal/infrastructure/metrics"
)

// InventoryHandler maneja las operaciones directas sobre el ledger:
// ajustes manuales, reservas, niveles, movimientos y conciliación.
type InventoryHandler struct {
	uc *ledger.LedgerUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *ledger.LedgerUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// Adjust godoc
// @Summary      Registrar ajuste manual de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "Ajuste (IN suma, OUT resta)"
// @Success      200   {object}  dto.SiteInventoryResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	inv, err := h.uc.RegisterAdjustment(c.Context(), ledger.AdjustmentInputDTO{
		SiteID:    in.SiteID,
		ItemID:    in.ItemID,
		Direction: in.Direction,
		Quantity:  in.Quantity,
		ActorID:   GetUserID(c),
		Reference: in.Reference,
	})
	metrics.ObserveLedgerOp("adjust", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewSiteInventoryResponse(inv))
}

// Reserve godoc
// @Summary      Reservar cantidad contra una obra
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveRequest  true  "Reserva"
// @Success      200   {object}  dto.SiteInventoryResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/reservations [post]
func (h *InventoryHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	inv, err := h.uc.Reserve(c.Context(), in.SiteID, in.ItemID, in.Quantity)
	metrics.ObserveLedgerOp("reserve", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewSiteInventoryResponse(inv))
}

// Release godoc
// @Summary      Liberar una reserva
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveRequest  true  "Liberación"
// @Success      200   {object}  dto.SiteInventoryResponse
// @Router       /api/inventory/releases [post]
func (h *InventoryHandler) Release(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	inv, err := h.uc.Release(c.Context(), in.SiteID, in.ItemID, in.Quantity)
	metrics.ObserveLedgerOp("release", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewSiteInventoryResponse(inv))
}

// Levels godoc
// @Summary      Niveles de inventario de una obra
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        site_id  query  string  true  "Obra"
// @Success      200  {array}  dto.SiteInventoryResponse
// @Router       /api/inventory/levels [get]
func (h *InventoryHandler) Levels(c *fiber.Ctx) error {
	siteID := c.Query("site_id")
	if siteID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "site_id es requerido"})
	}
	limit, offset := pageParams(c)
	levels, err := h.uc.Levels(c.Context(), siteID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.SiteInventoryResponse, 0, len(levels))
	for _, inv := range levels {
		out = append(out, dto.NewSiteInventoryResponse(inv))
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Log de movimientos de una obra
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        site_id  query  string  true   "Obra"
// @Param        item_id  query  string  false  "Ítem (opcional)"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	siteID := c.Query("site_id")
	if siteID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "site_id es requerido"})
	}
	limit, offset := pageParams(c)
	entries, err := h.uc.Movements(c.Context(), siteID, c.Query("item_id"), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.NewMovementResponse(e))
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Conciliar cantidad actual contra el replay del log
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        site_id  query  string  true  "Obra"
// @Param        item_id  query  string  true  "Ítem"
// @Success      200  {object}  dto.ReconcileResponse
// @Router       /api/inventory/reconcile [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	siteID := c.Query("site_id")
	itemID := c.Query("item_id")
	if siteID == "" || itemID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "site_id e item_id son requeridos"})
	}
	current, replayed, err := h.uc.Reconcile(c.Context(), siteID, itemID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ReconcileResponse{
		SiteID:     siteID,
		ItemID:     itemID,
		Quantity:   current,
		Replayed:   replayed,
		Consistent: current.Equal(replayed),
	})
}

// VirtualSite godoc
// @Summary      Obtener (o inicializar) el almacén virtual de tránsito
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  entity.Site
// @Router       /api/inventory/virtual-site [get]
func (h *InventoryHandler) VirtualSite(c *fiber.Ctx) error {
	site, err := h.uc.VirtualSite(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(site)
}
