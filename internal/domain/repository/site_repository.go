package repository

import "github.com/jhoicas/Obras-api/internal/domain/entity"

// SiteRepository define el puerto de persistencia de obras.
// GetVirtual devuelve la obra virtual de tránsito (nil si aún no existe);
// su creación está protegida por un índice único parcial sobre kind='virtual'.
type SiteRepository interface {
	Create(site *entity.Site) error
	GetByID(id string) (*entity.Site, error)
	GetVirtual() (*entity.Site, error)
	List(limit, offset int) ([]*entity.Site, error)
	// SoftDelete marca la obra como eliminada; nunca borra la fila mientras
	// existan filas de inventario que la referencien.
	SoftDelete(id string) error
}
