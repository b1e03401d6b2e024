package entity

import "time"

// Tipos de solicitud sobre una máquina.
const (
	TransferTypeSiteTransfer = "SITE_TRANSFER"
	TransferTypeSellMachine  = "SELL_MACHINE"
	TransferTypeScrapMachine = "SCRAP_MACHINE"
)

// Estados de un traslado de maquinaria.
// PENDING -> APPROVED -> DISPATCHED -> RECEIVED; PENDING -> REJECTED.
// Venta y chatarra terminan en APPROVED (no hay despacho ni recepción).
const (
	TransferStatusPending    = "PENDING"
	TransferStatusApproved   = "APPROVED"
	TransferStatusDispatched = "DISPATCHED"
	TransferStatusReceived   = "RECEIVED"
	TransferStatusRejected   = "REJECTED"
)

// MachineTransfer es la solicitud de traslado, venta o baja de una máquina.
// No toca cantidades del ledger: espeja el estado de la máquina como efecto
// de sus transiciones, con la misma disciplina anti-carreras de los demás flujos.
type MachineTransfer struct {
	ID                string
	Code              string // MT-000042
	MachineID         string
	CurrentSiteID     string
	DestinationSiteID *string // solo SITE_TRANSFER
	RequestType       string
	Status            string
	RequestedBy       string
	RequestedAt       time.Time
	ApprovedBy        *string
	ApprovedAt        *time.Time
	DispatchedBy      *string
	DispatchedAt      *time.Time
	ReceivedBy        *string
	ReceivedAt        *time.Time
	RejectedBy        *string
	RejectedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
