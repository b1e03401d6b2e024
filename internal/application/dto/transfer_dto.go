package dto

// CreateTransferRequest solicita traslado, venta o baja de una máquina.
type CreateTransferRequest struct {
	MachineID         string  `json:"machine_id"`
	RequestType       string  `json:"request_type"` // SITE_TRANSFER | SELL_MACHINE | SCRAP_MACHINE
	DestinationSiteID *string `json:"destination_site_id,omitempty"`
}
