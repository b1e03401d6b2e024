package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados derivados del inventario por obra+ítem.
const (
	StockStatusInStock    = "IN_STOCK"
	StockStatusLowStock   = "LOW_STOCK"
	StockStatusOutOfStock = "OUT_OF_STOCK"
)

// SiteInventory es la fila autoritativa de inventario para un par (obra, ítem).
// Quantity es la existencia física; LockedQuantity la porción reservada por
// flujos pendientes que aún no se ha despachado. Se muta exclusivamente a
// través del ledger, bajo bloqueo de fila.
type SiteInventory struct {
	SiteID         string
	ItemID         string
	Quantity       decimal.Decimal
	LockedQuantity decimal.Decimal
	MinimumLevel   decimal.Decimal
	Status         string
	UpdatedAt      time.Time
}

// Available devuelve la cantidad disponible para nuevas reservas (Quantity - LockedQuantity).
func (s *SiteInventory) Available() decimal.Decimal {
	return s.Quantity.Sub(s.LockedQuantity)
}

// RecomputeStatus recalcula el estado derivado según la regla:
// qty <= 0 -> OUT_OF_STOCK; 0 < qty < mínimo -> LOW_STOCK; si no -> IN_STOCK.
func (s *SiteInventory) RecomputeStatus() {
	switch {
	case !s.Quantity.GreaterThan(decimal.Zero):
		s.Status = StockStatusOutOfStock
	case s.MinimumLevel.GreaterThan(decimal.Zero) && s.Quantity.LessThan(s.MinimumLevel):
		s.Status = StockStatusLowStock
	default:
		s.Status = StockStatusInStock
	}
}

// RestoreLockedInvariant restablece el invariante LockedQuantity >= 0 tras una
// liberación. Cada flujo libera una reserva exactamente una vez, pero el clamp
// se conserva como paso explícito de restauración del invariante.
func (s *SiteInventory) RestoreLockedInvariant() {
	if s.LockedQuantity.LessThan(decimal.Zero) {
		s.LockedQuantity = decimal.Zero
	}
}
