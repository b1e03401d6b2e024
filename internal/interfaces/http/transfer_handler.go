package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Obras-api/internal/application/dto"
	"github.com/jhoicas/Obras-api/internal/application/transfer"
	"github.com/jhoicas/Obras-api/internal/infrastructure/metrics"
)

// TransferHandler maneja el flujo de traslado, venta y baja de maquinaria.
type TransferHandler struct {
	uc *transfer.TransferUseCase
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *transfer.TransferUseCase) *TransferHandler {
	return &TransferHandler{uc: uc}
}

// Create godoc
// @Summary      Solicitar traslado, venta o baja de una máquina
// @Tags         machine-transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "Solicitud"
// @Success      201   {object}  entity.MachineTransfer
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/machine-transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Request(c.Context(), transfer.RequestInput{
		MachineID:         in.MachineID,
		RequestType:       in.RequestType,
		DestinationSiteID: in.DestinationSiteID,
		ActorID:           GetUserID(c),
	})
	metrics.ObserveTransition("machine_transfer", "request", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get godoc
// @Summary      Obtener traslado por ID
// @Tags         machine-transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  entity.MachineTransfer
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/machine-transfers/{id} [get]
func (h *TransferHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar traslados de una obra (origen o destino)
// @Tags         machine-transfers
// @Security     Bearer
// @Produce      json
// @Param        site_id  query  string  true  "Obra"
// @Success      200  {array}  entity.MachineTransfer
// @Router       /api/machine-transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	siteID := c.Query("site_id")
	if siteID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "site_id es requerido"})
	}
	limit, offset := pageParams(c)
	out, err := h.uc.ListBySite(c.Context(), siteID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Approve godoc
// @Summary      Aprobar traslado (venta/baja terminan aquí)
// @Tags         machine-transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  entity.MachineTransfer
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/machine-transfers/{id}/approve [post]
func (h *TransferHandler) Approve(c *fiber.Ctx) error {
	out, err := h.uc.Approve(c.Context(), c.Params("id"), GetUserID(c))
	metrics.ObserveTransition("machine_transfer", "approve", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Dispatch godoc
// @Summary      Despachar traslado (solo la obra origen)
// @Tags         machine-transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  entity.MachineTransfer
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/machine-transfers/{id}/dispatch [post]
func (h *TransferHandler) Dispatch(c *fiber.Ctx) error {
	out, err := h.uc.Dispatch(c.Context(), c.Params("id"), GetUserID(c), GetSiteID(c))
	metrics.ObserveTransition("machine_transfer", "dispatch", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Receive godoc
// @Summary      Recibir traslado (solo la obra destino)
// @Tags         machine-transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  entity.MachineTransfer
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/machine-transfers/{id}/receive [post]
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	out, err := h.uc.Receive(c.Context(), c.Params("id"), GetUserID(c), GetSiteID(c))
	metrics.ObserveTransition("machine_transfer", "receive", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Reject godoc
// @Summary      Rechazar traslado (la máquina vuelve a IN_USE)
// @Tags         machine-transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  entity.MachineTransfer
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/machine-transfers/{id}/reject [post]
func (h *TransferHandler) Reject(c *fiber.Ctx) error {
	out, err := h.uc.Reject(c.Context(), c.Params("id"), GetUserID(c))
	metrics.ObserveTransition("machine_transfer", "reject", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
