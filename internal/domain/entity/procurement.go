package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una compra (procurement). Los nombres siguen el ciclo físico:
// la mercancía entra primero al almacén virtual y de ahí viaja a la obra.
const (
	ProcurementStatusPending           = "pending"
	ProcurementStatusOrdered           = "ordered"
	ProcurementStatusAcceptedAtVirtual = "accepted_at_virtual_site"
	ProcurementStatusInTransit         = "in_transit_to_requested_site"
	ProcurementStatusDelivered         = "delivered"
	ProcurementStatusPaid              = "paid"
)

// Estados de un despacho (tramo almacén virtual -> obra con vehículo/conductor).
const (
	DispatchStatusInTransit = "IN_TRANSIT"
	DispatchStatusReceived  = "RECEIVED"
)

// Estados de una factura de compra.
const (
	InvoiceStatusPending       = "PENDING"
	InvoiceStatusPartiallyPaid = "PARTIALLY_PAID"
	InvoiceStatusPaid          = "PAID"
)

// Procurement es la cabecera de una compra a proveedor.
type Procurement struct {
	ID               string
	Code             string // PO-000087
	RequisitionID    *string
	VendorID         string
	RequestingSiteID string
	Status           string
	Total            decimal.Decimal
	CreatedBy        string
	CreatedAt        time.Time
	OrderedBy        *string
	OrderedAt        *time.Time
	AcceptedBy       *string
	AcceptedAt       *time.Time
	TransitBy        *string
	TransitAt        *time.Time
	DeliveredAt      *time.Time
	PaidAt           *time.Time
	UpdatedAt        time.Time
}

// ProcurementItem es una línea de compra. ReceivedQuantity acumula lo
// conciliado vía facturas y nunca puede superar Quantity.
type ProcurementItem struct {
	ID               string
	ProcurementID    string
	ItemID           string
	Quantity         decimal.Decimal
	Rate             decimal.Decimal
	Amount           decimal.Decimal // Quantity * Rate
	ReceivedQuantity decimal.Decimal
}

// FullyReceived indica si la línea ya fue conciliada por completo.
func (p *ProcurementItem) FullyReceived() bool {
	return !p.ReceivedQuantity.LessThan(p.Quantity)
}

// Dispatch registra el tramo almacén virtual -> obra cuando hay vehículo y
// conductor explícitos. Entre el despacho y la recepción la cantidad está
// "en vuelo": no figura en el inventario de ninguna obra y solo es visible
// por el log de movimientos y este registro abierto.
type Dispatch struct {
	ID            string
	Code          string // DSP-000015
	ProcurementID string
	Status        string
	VehicleNumber string
	DriverName    string
	DriverPhone   string
	DispatchedBy  string
	DispatchedAt  time.Time
	ReceivedBy    *string
	ReceivedAt    *time.Time
}

// DispatchItem es una línea despachada.
type DispatchItem struct {
	ID         string
	DispatchID string
	ItemID     string
	Quantity   decimal.Decimal
}

// Invoice es una factura del proveedor contra una compra. Su registro
// concilia cantidades (ReceivedQuantity) pero nunca escribe en el ledger.
type Invoice struct {
	ID            string
	Code          string // INV-000033
	ProcurementID string
	InvoiceNumber string // número del proveedor
	Amount        decimal.Decimal
	Status        string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InvoiceItem es una línea facturada.
type InvoiceItem struct {
	ID        string
	InvoiceID string
	ItemID    string
	Quantity  decimal.Decimal
}

// Payment es un abono contra una factura.
type Payment struct {
	ID        string
	InvoiceID string
	Amount    decimal.Decimal
	Method    string
	Reference string
	PaidBy    string
	PaidAt    time.Time
}
