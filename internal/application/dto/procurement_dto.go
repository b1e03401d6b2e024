package dto

import "github.com/shopspring/decimal"

// ProcurementLineRequest línea de compra.
type ProcurementLineRequest struct {
	ItemID   string          `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
}

// CreateProcurementRequest crea una compra a proveedor.
type CreateProcurementRequest struct {
	VendorID         string                   `json:"vendor_id"`
	RequestingSiteID string                   `json:"requesting_site_id"`
	RequisitionID    *string                  `json:"requisition_id,omitempty"`
	Lines            []ProcurementLineRequest `json:"lines"`
}

// DispatchLineRequest línea despachada (vacío = todas las líneas completas).
type DispatchLineRequest struct {
	ItemID   string          `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// CreateDispatchRequest despacho almacén virtual -> obra con vehículo/conductor.
type CreateDispatchRequest struct {
	VehicleNumber string                `json:"vehicle_number"`
	DriverName    string                `json:"driver_name"`
	DriverPhone   string                `json:"driver_phone,omitempty"`
	Lines         []DispatchLineRequest `json:"lines,omitempty"`
}

// InvoiceLineRequest línea facturada.
type InvoiceLineRequest struct {
	ItemID   string          `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// RegisterInvoiceRequest registra una factura del proveedor contra la compra.
type RegisterInvoiceRequest struct {
	InvoiceNumber string               `json:"invoice_number"`
	Amount        decimal.Decimal      `json:"amount,omitempty"`
	Lines         []InvoiceLineRequest `json:"lines"`
}

// RegisterPaymentRequest abona contra una factura.
type RegisterPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method,omitempty"`
	Reference string          `json:"reference,omitempty"`
}
