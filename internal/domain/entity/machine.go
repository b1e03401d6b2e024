package entity

import "time"

// Estados de una máquina. El flujo de traslado de maquinaria los espeja
// como efecto de sus transiciones (request/approve/receive/reject).
const (
	MachineStatusInUse      = "IN_USE"
	MachineStatusInTransfer = "IN_TRANSFER"
	MachineStatusSold       = "SOLD"
	MachineStatusScrap      = "SCRAP"
)

// Machine representa un activo de maquinaria asignado a una obra.
// SiteID queda en nil cuando la máquina se vende o se da de baja (chatarra).
type Machine struct {
	ID        string
	Code      string
	Name      string
	SiteID    *string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
