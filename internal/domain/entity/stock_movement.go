package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dirección de un movimiento de stock.
const (
	MovementDirectionIn  = "IN"
	MovementDirectionOut = "OUT"
)

// Origen del movimiento: el flujo y registro que lo causó.
const (
	MovementSourceIssue       = "Issue"
	MovementSourceConsumption = "Consumption"
	MovementSourceRequisition = "Requisition"
	MovementSourceProcurement = "Procurement"
	MovementSourceDispatch    = "Dispatch"
	MovementSourceAdjustment  = "Adjustment"
)

// StockMovementLogEntry es el registro inmutable de cada delta aplicado al
// inventario de una obra. Solo se inserta, nunca se actualiza ni se borra:
// para cualquier (obra, ítem) la suma de Change reproduce la Quantity actual.
type StockMovementLogEntry struct {
	ID         string
	SiteID     string
	ItemID     string
	Change     decimal.Decimal // con signo: positivo IN, negativo OUT
	Direction  string          // IN | OUT
	SourceType string          // Issue, Consumption, Procurement, Dispatch...
	SourceID   string          // ID del registro causante
	CreatedBy  string
	CreatedAt  time.Time
}
