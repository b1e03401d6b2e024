package repository

import "github.com/jhoicas/Obras-api/internal/domain/entity"

// SiteInventoryRepository define el puerto sobre la fila autoritativa de
// inventario (obra, ítem). Se usa dentro de transacciones; GetForUpdate
// bloquea la fila (SELECT FOR UPDATE) antes de comparar disponibilidad.
type SiteInventoryRepository interface {
	Get(siteID, itemID string) (*entity.SiteInventory, error)
	// Ensure crea la fila con saldos en cero si no existe (INSERT ... ON CONFLICT
	// DO NOTHING); necesaria antes de GetForUpdate porque una fila inexistente
	// no se puede bloquear.
	Ensure(siteID, itemID string) error
	GetForUpdate(siteID, itemID string) (*entity.SiteInventory, error)
	Upsert(inv *entity.SiteInventory) error
	ListBySite(siteID string, limit, offset int) ([]*entity.SiteInventory, error)
}
