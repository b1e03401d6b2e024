package repository

import "github.com/jhoicas/Obras-api/internal/domain/entity"

// MachineTransferRepository define el puerto de persistencia de traslados de maquinaria.
type MachineTransferRepository interface {
	Create(transfer *entity.MachineTransfer) error
	GetByID(id string) (*entity.MachineTransfer, error)
	GetByIDForUpdate(id string) (*entity.MachineTransfer, error)
	UpdateIf(transfer *entity.MachineTransfer, expectedStatus string) error
	ListBySite(siteID string, limit, offset int) ([]*entity.MachineTransfer, error)
	NextCode() (int64, error)
}
