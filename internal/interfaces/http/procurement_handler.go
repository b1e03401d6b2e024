package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Obras-api/internal/application/dto"
	"github.com/jhoicas/Obras-api/internal/application/procurement"
	"github.com/jhoicas/Obras-api/internal/infrastructure/metrics"
)

// ProcurementHandler maneja el flujo de compras: ciclo de estados, despachos,
// facturas y pagos.
type ProcurementHandler struct {
	uc *procurement.ProcurementUseCase
}

// NewProcurementHandler construye el handler.
func NewProcurementHandler(uc *procurement.ProcurementUseCase) *ProcurementHandler {
	return &ProcurementHandler{uc: uc}
}

// Create godoc
// @Summary      Crear compra a proveedor
// @Tags         procurements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProcurementRequest  true  "Compra"
// @Success      201   {object}  entity.Procurement
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/procurements [post]
func (h *ProcurementHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProcurementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lines := make([]procurement.CreateLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, procurement.CreateLineInput{ItemID: l.ItemID, Quantity: l.Quantity, Rate: l.Rate})
	}
	out, err := h.uc.Create(c.Context(), procurement.CreateInput{
		VendorID:         in.VendorID,
		RequestingSiteID: in.RequestingSiteID,
		RequisitionID:    in.RequisitionID,
		ActorID:          GetUserID(c),
		Lines:            lines,
	})
	metrics.ObserveTransition("procurement", "create", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get godoc
// @Summary      Obtener compra con sus líneas
// @Tags         procurements
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la compra"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/procurements/{id} [get]
func (h *ProcurementHandler) Get(c *fiber.Ctx) error {
	header, items, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"procurement": header, "items": items})
}

// List godoc
// @Summary      Listar compras de una obra
// @Tags         procurements
// @Security     Bearer
// @Produce      json
// @Param        site_id  query  string  true  "Obra solicitante"
// @Success      200  {array}  entity.Procurement
// @Router       /api/procurements [get]
func (h *ProcurementHandler) List(c *fiber.Ctx) error {
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

// MarkOrdered godoc
// @Summary      Marcar compra como ordenada al proveedor
// @Tags         procurements
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la compra"
// @Success      200  {object}  entity.Procurement
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/procurements/{id}/order [post]
func (h *ProcurementHandler) MarkOrdered(c *fiber.Ctx) error {
	out, err := h.uc.MarkOrdered(c.Context(), c.Params("id"), GetUserID(c))
	metrics.ObserveTransition("procurement", "order", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Accept godoc
// @Summary      Aceptar mercancía en el almacén virtual (acredita el ledger)
// @Tags         procurements
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la compra"
// @Success      200  {object}  entity.Procurement
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/procurements/{id}/accept [post]
func (h *ProcurementHandler) Accept(c *fiber.Ctx) error {
	out, err := h.uc.AcceptAtVirtualSite(c.Context(), c.Params("id"), GetUserID(c))
	metrics.ObserveTransition("procurement", "accept", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// MarkInTransit godoc
// @Summary      Mover virtual -> obra en una sola transacción
// @Tags         procurements
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la compra"
// @Success      200  {object}  entity.Procurement
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/procurements/{id}/transit [post]
func (h *ProcurementHandler) MarkInTransit(c *fiber.Ctx) error {
	out, err := h.uc.MarkInTransit(c.Context(), c.Params("id"), GetUserID(c))
	metrics.ObserveTransition("procurement", "transit", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CreateDispatch godoc
// @Summary      Despachar virtual -> obra con vehículo/conductor (abre ventana en vuelo)
// @Tags         procurements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la compra"
// @Param        body  body  dto.CreateDispatchRequest  true  "Despacho"
// @Success      201   {object}  entity.Dispatch
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/procurements/{id}/dispatches [post]
func (h *ProcurementHandler) CreateDispatch(c *fiber.Ctx) error {
	var in dto.CreateDispatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lines := make([]procurement.DispatchLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, procurement.DispatchLineInput{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	out, err := h.uc.CreateDispatch(c.Context(), c.Params("id"), procurement.CreateDispatchInput{
		VehicleNumber: in.VehicleNumber,
		DriverName:    in.DriverName,
		DriverPhone:   in.DriverPhone,
		ActorID:       GetUserID(c),
		Lines:         lines,
	})
	metrics.ObserveTransition("procurement", "dispatch", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListDispatches godoc
// @Summary      Listar despachos de una compra
// @Tags         procurements
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la compra"
// @Success      200  {array}  entity.Dispatch
// @Router       /api/procurements/{id}/dispatches [get]
func (h *ProcurementHandler) ListDispatches(c *fiber.Ctx) error {
	out, err := h.uc.ListDispatches(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ReceiveDispatch godoc
// @Summary      Recibir despacho en la obra (cierra la ventana en vuelo)
// @Tags         procurements
// @Security     Bearer
// @Produce      json
// @Param        dispatch_id  path  string  true  "ID del despacho"
// @Success      200  {object}  entity.Dispatch
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/dispatches/{dispatch_id}/receive [post]
func (h *ProcurementHandler) ReceiveDispatch(c *fiber.Ctx) error {
	out, err := h.uc.ReceiveDispatch(c.Context(), c.Params("dispatch_id"), GetUserID(c))
	metrics.ObserveTransition("procurement", "receive_dispatch", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// RegisterInvoice godoc
// @Summary      Registrar factura del proveedor (concilia cantidades, nunca toca el ledger)
// @Tags         procurements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID de la compra"
// @Param        body  body  dto.RegisterInvoiceRequest  true  "Factura"
// @Success      201   {object}  entity.Invoice
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/procurements/{id}/invoices [post]
func (h *ProcurementHandler) RegisterInvoice(c *fiber.Ctx) error {
	var in dto.RegisterInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lines := make([]procurement.InvoiceLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, procurement.InvoiceLineInput{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	out, err := h.uc.RegisterInvoice(c.Context(), c.Params("id"), procurement.RegisterInvoiceInput{
		InvoiceNumber: in.InvoiceNumber,
		Amount:        in.Amount,
		ActorID:       GetUserID(c),
		Lines:         lines,
	})
	metrics.ObserveTransition("procurement", "invoice", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListInvoices godoc
// @Summary      Listar facturas de una compra
// @Tags         procurements
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la compra"
// @Success      200  {array}  entity.Invoice
// @Router       /api/procurements/{id}/invoices [get]
func (h *ProcurementHandler) ListInvoices(c *fiber.Ctx) error {
	out, err := h.uc.ListInvoices(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// RegisterPayment godoc
// @Summary      Registrar abono contra una factura
// @Tags         procurements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        invoice_id  path  string                      true  "ID de la factura"
// @Param        body        body  dto.RegisterPaymentRequest  true  "Abono"
// @Success      200  {object}  entity.Invoice
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/invoices/{invoice_id}/payments [post]
func (h *ProcurementHandler) RegisterPayment(c *fiber.Ctx) error {
	var in dto.RegisterPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.RegisterPayment(c.Context(), c.Params("invoice_id"), procurement.RegisterPaymentInput{
		Amount:    in.Amount,
		Method:    in.Method,
		Reference: in.Reference,
		ActorID:   GetUserID(c),
	})
	metrics.ObserveTransition("procurement", "payment", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar compra (revierte los asientos del ledger si aplica)
// @Tags         procurements
// @Security     Bearer
// @Param        id  path  string  true  "ID de la compra"
// @Success      204
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/procurements/{id} [delete]
func (h *ProcurementHandler) Delete(c *fiber.Ctx) error {
	err := h.uc.Delete(c.Context(), c.Params("id"), GetUserID(c))
	metrics.ObserveTransition("procurement", "delete", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
