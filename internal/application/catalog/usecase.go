package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Obras-api/internal/domain"
	"github.com/jhoicas/Obras-api/internal/domain/entity"
	"github.com/jhoicas/Obras-api/internal/domain/repository"
)

// CatalogUseCase administra el catálogo de soporte: obras, ítems y máquinas.
// No toca el ledger; los flujos validan contra estos registros.
type CatalogUseCase struct {
	siteRepo    repository.SiteRepository
	itemRepo    repository.ItemRepository
	machineRepo repository.MachineRepository
}

// NewCatalogUseCase construye el caso de uso de catálogo.
func NewCatalogUseCase(siteRepo repository.SiteRepository, itemRepo repository.ItemRepository, machineRepo repository.MachineRepository) *CatalogUseCase {
	return &CatalogUseCase{siteRepo: siteRepo, itemRepo: itemRepo, machineRepo: machineRepo}
}

// CreateSite da de alta una obra física. El almacén virtual no se crea por
// aquí: lo inicializa el ledger de forma perezosa.
func (uc *CatalogUseCase) CreateSite(_ context.Context, name, address string) (*entity.Site, error) {
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	site := &entity.Site{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      entity.SiteKindPhysical,
		Address:   address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.siteRepo.Create(site); err != nil {
		return nil, err
	}
	return site, nil
}

// GetSite obtiene una obra.
func (uc *CatalogUseCase) GetSite(_ context.Context, id string) (*entity.Site, error) {
	return uc.siteRepo.GetByID(id)
}

// ListSites lista las obras activas.
func (uc *CatalogUseCase) ListSites(_ context.Context, limit, offset int) ([]*entity.Site, error) {
	return uc.siteRepo.List(limit, offset)
}

// DeleteSite marca la obra como eliminada. El historial del ledger que la
// referencia permanece intacto.
func (uc *CatalogUseCase) DeleteSite(_ context.Context, id string) error {
	site, err := uc.siteRepo.GetByID(id)
	if err != nil {
		return err
	}
	if site == nil {
		return domain.ErrNotFound
	}
	if site.IsVirtual() {
		return domain.ErrInvalidInput
	}
	return uc.siteRepo.SoftDelete(id)
}

// CreateItem da de alta un ítem. La identidad (SKU, unidad) es inmutable una
// vez que el ledger lo referencia, por eso no hay update.
func (uc *CatalogUseCase) CreateItem(_ context.Context, sku, name, unit string) (*entity.Item, error) {
	if sku == "" || name == "" || unit == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	item := &entity.Item{
		ID:        uuid.NewString(),
		SKU:       sku,
		Name:      name,
		Unit:      unit,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.itemRepo.Create(item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem obtiene un ítem.
func (uc *CatalogUseCase) GetItem(_ context.Context, id string) (*entity.Item, error) {
	return uc.itemRepo.GetByID(id)
}

// ListItems lista el catálogo de ítems.
func (uc *CatalogUseCase) ListItems(_ context.Context, limit, offset int) ([]*entity.Item, error) {
	return uc.itemRepo.List(limit, offset)
}

// CreateMachine da de alta una máquina asignada a una obra, en uso.
func (uc *CatalogUseCase) CreateMachine(_ context.Context, code, name, siteID string) (*entity.Machine, error) {
	if code == "" || name == "" || siteID == "" {
		return nil, domain.ErrInvalidInput
	}
	site, err := uc.siteRepo.GetByID(siteID)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, domain.ErrNotFound
	}
	now := time.Now()
	machine := &entity.Machine{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      name,
		SiteID:    &siteID,
		Status:    entity.MachineStatusInUse,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.machineRepo.Create(machine); err != nil {
		return nil, err
	}
	return machine, nil
}

// GetMachine obtiene una máquina.
func (uc *CatalogUseCase) GetMachine(_ context.Context, id string) (*entity.Machine, error) {
	return uc.machineRepo.GetByID(id)
}

// ListMachines lista las máquinas de una obra.
func (uc *CatalogUseCase) ListMachines(_ context.Context, siteID string, limit, offset int) ([]*entity.Machine, error) {
	return uc.machineRepo.ListBySite(siteID, limit, offset)
}
