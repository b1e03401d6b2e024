package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Obras-api/internal/application/dto"
	"github.com/jhoicas/Obras-api/internal/application/issue"
	"github.com/jhoicas/Obras-api/internal/infrastructure/metrics"
)

// IssueHandler maneja el flujo de salidas de material (consumo y traslado).
type IssueHandler struct {
	uc *issue.IssueUseCase
}

// NewIssueHandler construye el handler.
func NewIssueHandler(uc *issue.IssueUseCase) *IssueHandler {
	return &IssueHandler{uc: uc}
}

// Create godoc
// @Summary      Crear salida de material (reserva sus líneas)
// @Tags         issues
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateIssueRequest  true  "Salida"
// @Success      201   {object}  entity.MaterialIssue
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/issues [post]
func (h *IssueHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateIssueRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lines := make([]issue.CreateIssueLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, issue.CreateIssueLineInput{ItemID: l.ItemID, Quantity: l.Quantity, MachineID: l.MachineID})
	}
	out, err := h.uc.Create(c.Context(), issue.CreateIssueInput{
		IssueType:         in.IssueType,
		SiteID:            in.SiteID,
		DestinationSiteID: in.DestinationSiteID,
		RequisitionID:     in.RequisitionID,
		ActorID:           GetUserID(c),
		Lines:             lines,
	})
	metrics.ObserveTransition("issue", "create", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get godoc
// @Summary      Obtener salida con sus líneas
// @Tags         issues
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la salida"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/issues/{id} [get]
func (h *IssueHandler) Get(c *fiber.Ctx) error {
	header, items, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"issue": header, "items": items})
}

// List godoc
// @Summary      Listar salidas de una obra
// @Tags         issues
// @Security     Bearer
// @Produce      json
// @Param        site_id  query  string  true  "Obra origen"
// @Success      200  {array}  entity.MaterialIssue
// @Router       /api/issues [get]
func (h *IssueHandler) List(c *fiber.Ctx) error {
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
// @Summary      Aprobar salida
// @Tags         issues
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la salida"
// @Success      200  {object}  entity.MaterialIssue
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/issues/{id}/approve [post]
func (h *IssueHandler) Approve(c *fiber.Ctx) error {
	out, err := h.uc.Approve(c.Context(), c.Params("id"), GetUserID(c))
	metrics.ObserveTransition("issue", "approve", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Dispatch godoc
// @Summary      Despachar traslado (debita la obra origen)
// @Tags         issues
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la salida"
// @Success      200  {object}  entity.MaterialIssue
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/issues/{id}/dispatch [post]
func (h *IssueHandler) Dispatch(c *fiber.Ctx) error {
	out, err := h.uc.Dispatch(c.Context(), c.Params("id"), GetUserID(c))
	metrics.ObserveTransition("issue", "dispatch", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Receive godoc
// @Summary      Recibir traslado (acredita la obra destino)
// @Tags         issues
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la salida"
// @Success      200  {object}  entity.MaterialIssue
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/issues/{id}/receive [post]
func (h *IssueHandler) Receive(c *fiber.Ctx) error {
	out, err := h.uc.Receive(c.Context(), c.Params("id"), GetUserID(c))
	metrics.ObserveTransition("issue", "receive", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Consume godoc
// @Summary      Consumir en la propia obra (debita el origen)
// @Tags         issues
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la salida"
// @Success      200  {object}  entity.MaterialIssue
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/issues/{id}/consume [post]
func (h *IssueHandler) Consume(c *fiber.Ctx) error {
	out, err := h.uc.Consume(c.Context(), c.Params("id"), GetUserID(c))
	metrics.ObserveTransition("issue", "consume", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Reject godoc
// @Summary      Rechazar salida (libera sus reservas)
// @Tags         issues
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la salida"
// @Success      200  {object}  entity.MaterialIssue
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/issues/{id}/reject [post]
func (h *IssueHandler) Reject(c *fiber.Ctx) error {
	out, err := h.uc.Reject(c.Context(), c.Params("id"), GetUserID(c))
	metrics.ObserveTransition("issue", "reject", err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
