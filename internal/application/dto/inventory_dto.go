package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Obras-api/internal/domain/entity"
)

// AdjustmentRequest ajuste manual de inventario (IN suma, OUT resta).
type AdjustmentRequest struct {
	SiteID    string          `json:"site_id"`
	ItemID    string          `json:"item_id"`
	Direction string          `json:"direction"` // IN | OUT
	Quantity  decimal.Decimal `json:"quantity"`
	Reference string          `json:"reference,omitempty"`
}

// ReserveRequest reserva/liberación manual contra un par (obra, ítem).
type ReserveRequest struct {
	SiteID   string          `json:"site_id"`
	ItemID   string          `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// SiteInventoryResponse snapshot de la fila de inventario.
type SiteInventoryResponse struct {
	SiteID         string          `json:"site_id"`
	ItemID         string          `json:"item_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	LockedQuantity decimal.Decimal `json:"locked_quantity"`
	Available      decimal.Decimal `json:"available"`
	MinimumLevel   decimal.Decimal `json:"minimum_level"`
	Status         string          `json:"status"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewSiteInventoryResponse arma el snapshot desde la entidad.
func NewSiteInventoryResponse(inv *entity.SiteInventory) SiteInventoryResponse {
	return SiteInventoryResponse{
		SiteID:         inv.SiteID,
		ItemID:         inv.ItemID,
		Quantity:       inv.Quantity,
		LockedQuantity: inv.LockedQuantity,
		Available:      inv.Available(),
		MinimumLevel:   inv.MinimumLevel,
		Status:         inv.Status,
		UpdatedAt:      inv.UpdatedAt,
	}
}

// MovementResponse entrada del log de movimientos.
type MovementResponse struct {
	ID         string          `json:"id"`
	SiteID     string          `json:"site_id"`
	ItemID     string          `json:"item_id"`
	Change     decimal.Decimal `json:"change"`
	Direction  string          `json:"direction"`
	SourceType string          `json:"source_type"`
	SourceID   string          `json:"source_id"`
	CreatedBy  string          `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewMovementResponse arma la respuesta desde la entidad.
func NewMovementResponse(e *entity.StockMovementLogEntry) MovementResponse {
	return MovementResponse{
		ID:         e.ID,
		SiteID:     e.SiteID,
		ItemID:     e.ItemID,
		Change:     e.Change,
		Direction:  e.Direction,
		SourceType: e.SourceType,
		SourceID:   e.SourceID,
		CreatedBy:  e.CreatedBy,
		CreatedAt:  e.CreatedAt,
	}
}

// ReconcileResponse compara la cantidad actual contra el replay del log.
type ReconcileResponse struct {
	SiteID     string          `json:"site_id"`
	ItemID     string          `json:"item_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Replayed   decimal.Decimal `json:"replayed"`
	Consistent bool            `json:"consistent"`
}
