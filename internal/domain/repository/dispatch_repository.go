package repository

import "github.com/jhoicas/Obras-api/internal/domain/entity"

// DispatchRepository define el puerto de despachos (tramo almacén virtual -> obra
// con vehículo/conductor). El registro abierto es la única vista del material
// "en vuelo" junto con el log de movimientos.
type DispatchRepository interface {
	Create(d *entity.Dispatch) error
	CreateItem(item *entity.DispatchItem) error
	GetByID(id string) (*entity.Dispatch, error)
	GetByIDForUpdate(id string) (*entity.Dispatch, error)
	GetItems(dispatchID string) ([]*entity.DispatchItem, error)
	UpdateIf(d *entity.Dispatch, expectedStatus string) error
	ListByProcurement(procurementID string) ([]*entity.Dispatch, error)
	NextCode() (int64, error)
}
