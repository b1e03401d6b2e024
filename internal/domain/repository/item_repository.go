package repository

import "github.com/jhoicas/Obras-api/internal/domain/entity"

// ItemRepository define el puerto de persistencia de ítems (SKUs).
type ItemRepository interface {
	Create(item *entity.Item) error
	GetByID(id string) (*entity.Item, error)
	GetBySKU(sku string) (*entity.Item, error)
	List(limit, offset int) ([]*entity.Item, error)
}
