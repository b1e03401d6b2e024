package repository

import "github.com/jhoicas/Obras-api/internal/domain/entity"

// ProcurementRepository define el puerto de persistencia de compras.
type ProcurementRepository interface {
	Create(p *entity.Procurement) error
	CreateItem(item *entity.ProcurementItem) error
	GetByID(id string) (*entity.Procurement, error)
	GetByIDForUpdate(id string) (*entity.Procurement, error)
	GetItems(procurementID string) ([]*entity.ProcurementItem, error)
	GetItemForUpdate(id string) (*entity.ProcurementItem, error)
	UpdateIf(p *entity.Procurement, expectedStatus string) error
	// UpdateItemReceived persiste el acumulado conciliado de la línea.
	UpdateItemReceived(item *entity.ProcurementItem) error
	ListBySite(siteID string, limit, offset int) ([]*entity.Procurement, error)
	// Delete borra cabecera y líneas. Solo el flujo puede invocarlo, después
	// de revertir los asientos del ledger (nunca un borrado ciego).
	Delete(id string) error
	NextCode() (int64, error)
}
