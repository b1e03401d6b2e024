package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Obras-api/internal/domain/entity"
)

// StockMovementRepository define el puerto del log de movimientos.
// Append-only: no existe update ni delete.
type StockMovementRepository interface {
	Append(entry *entity.StockMovementLogEntry) error
	ListBySite(siteID string, limit, offset int) ([]*entity.StockMovementLogEntry, error)
	ListBySiteItem(siteID, itemID string, limit, offset int) ([]*entity.StockMovementLogEntry, error)
	// SumChanges suma los Change históricos de (obra, ítem); debe reproducir
	// la Quantity actual de la fila de inventario (equivalencia por replay).
	SumChanges(siteID, itemID string) (decimal.Decimal, error)
}
