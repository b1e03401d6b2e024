package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Obras-api/internal/application/catalog"
	"github.com/jhoicas/Obras-api/internal/application/dto"
)

// CatalogHandler maneja el catálogo de soporte: obras, ítems y máquinas.
type CatalogHandler struct {
	uc *catalog.CatalogUseCase
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(uc *catalog.CatalogUseCase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

// CreateSite godoc
// @Summary      Crear obra
// @Tags         sites
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSiteRequest  true  "Datos de la obra"
// @Success      201   {object}  entity.Site
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/sites [post]
func (h *CatalogHandler) CreateSite(c *fiber.Ctx) error {
	var in dto.CreateSiteRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	site, err := h.uc.CreateSite(c.Context(), in.Name, in.Address)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(site)
}

// GetSite godoc
// @Summary      Obtener obra por ID
// @Tags         sites
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la obra"
// @Success      200  {object}  entity.Site
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sites/{id} [get]
func (h *CatalogHandler) GetSite(c *fiber.Ctx) error {
	site, err := h.uc.GetSite(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if site == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "obra no encontrada"})
	}
	return c.JSON(site)
}

// ListSites godoc
// @Summary      Listar obras
// @Tags         sites
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  entity.Site
// @Router       /api/sites [get]
func (h *CatalogHandler) ListSites(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	sites, err := h.uc.ListSites(c.Context(), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sites)
}

// DeleteSite godoc
// @Summary      Eliminar obra (soft delete)
// @Tags         sites
// @Security     Bearer
// @Param        id  path  string  true  "ID de la obra"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sites/{id} [delete]
func (h *CatalogHandler) DeleteSite(c *fiber.Ctx) error {
	if err := h.uc.DeleteSite(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateItem godoc
// @Summary      Crear ítem
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateItemRequest  true  "Datos del ítem"
// @Success      201   {object}  entity.Item
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *CatalogHandler) CreateItem(c *fiber.Ctx) error {
	var in dto.CreateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	item, err := h.uc.CreateItem(c.Context(), in.SKU, in.Name, in.Unit)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// GetItem godoc
// @Summary      Obtener ítem por ID
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  entity.Item
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [get]
func (h *CatalogHandler) GetItem(c *fiber.Ctx) error {
	item, err := h.uc.GetItem(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if item == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "ítem no encontrado"})
	}
	return c.JSON(item)
}

// ListItems godoc
// @Summary      Listar ítems
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  entity.Item
// @Router       /api/items [get]
func (h *CatalogHandler) ListItems(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	items, err := h.uc.ListItems(c.Context(), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// CreateMachine godoc
// @Summary      Crear máquina
// @Tags         machines
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateMachineRequest  true  "Datos de la máquina"
// @Success      201   {object}  entity.Machine
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/machines [post]
func (h *CatalogHandler) CreateMachine(c *fiber.Ctx) error {
	var in dto.CreateMachineRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	machine, err := h.uc.CreateMachine(c.Context(), in.Code, in.Name, in.SiteID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(machine)
}

// GetMachine godoc
// @Summary      Obtener máquina por ID
// @Tags         machines
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la máquina"
// @Success      200  {object}  entity.Machine
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/machines/{id} [get]
func (h *CatalogHandler) GetMachine(c *fiber.Ctx) error {
	machine, err := h.uc.GetMachine(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if machine == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "máquina no encontrada"})
	}
	return c.JSON(machine)
}

// ListMachines godoc
// @Summary      Listar máquinas de una obra
// @Tags         machines
// @Security     Bearer
// @Produce      json
// @Param        site_id  query  string  true  "Obra"
// @Success      200  {array}  entity.Machine
// @Router       /api/machines [get]
func (h *CatalogHandler) ListMachines(c *fiber.Ctx) error {
	siteID := c.Query("site_id")
	if siteID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "site_id es requerido"})
	}
	limit, offset := pageParams(c)
	machines, err := h.uc.ListMachines(c.Context(), siteID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(machines)
}

// pageParams normaliza limit/offset de la query.
func pageParams(c *fiber.Ctx) (int, int) {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
