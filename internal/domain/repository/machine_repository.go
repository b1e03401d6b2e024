package repository

import "github.com/jhoicas/Obras-api/internal/domain/entity"

// MachineRepository define el puerto de persistencia de maquinaria.
type MachineRepository interface {
	Create(machine *entity.Machine) error
	GetByID(id string) (*entity.Machine, error)
	// GetByIDForUpdate bloquea la fila de la máquina (SELECT FOR UPDATE) para
	// que las transiciones del flujo de traslado serialicen entre sí.
	GetByIDForUpdate(id string) (*entity.Machine, error)
	// UpdateStatus actualiza estado y obra de la máquina (espejo del flujo de traslado).
	UpdateStatus(id string, status string, siteID *string) error
	ListBySite(siteID string, limit, offset int) ([]*entity.Machine, error)
}
